// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import (
	"encoding"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sansreduction/services/reduction/params"
)

var (
	yamlUnmarshaler = reflect.TypeOf((*yaml.Unmarshaler)(nil)).Elem()
	textUnmarshaler = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// checkScalars walks node against the Go type t and rejects scalars whose
// resolved tag does not match a string, int or bool destination. yaml.v3
// otherwise coerces them: 123 lands in a string field and 1.5 in an int.
// Types with their own unmarshaler enforce their constraints themselves.
func checkScalars(path string, node *yaml.Node, t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		return checkScalars(path, node.Content[0], t)
	}
	if node.Kind == yaml.AliasNode || node.ShortTag() == "!!null" {
		return nil
	}
	if custom(t) {
		return nil
	}
	switch t.Kind() {
	case reflect.Struct:
		if node.Kind != yaml.MappingNode {
			return nil
		}
		fields := yamlFields(t)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			ft, ok := fields[key]
			if !ok {
				continue
			}
			if err := checkScalars(join(path, key), node.Content[i+1], ft); err != nil {
				return err
			}
		}
	case reflect.Map:
		if node.Kind != yaml.MappingNode {
			return nil
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if err := checkScalars(join(path, key), node.Content[i+1], t.Elem()); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if node.Kind != yaml.SequenceNode {
			return nil
		}
		for _, item := range node.Content {
			if err := checkScalars(path, item, t.Elem()); err != nil {
				return err
			}
		}
	case reflect.String:
		return wantTag(path, node, "a string", "!!str")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return wantTag(path, node, "an integer", "!!int")
	case reflect.Bool:
		return wantTag(path, node, "a boolean", "!!bool")
	}
	return nil
}

func custom(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(yamlUnmarshaler) || pt.Implements(yamlUnmarshaler) ||
		t.Implements(textUnmarshaler) || pt.Implements(textUnmarshaler)
}

func wantTag(path string, node *yaml.Node, what, tag string) error {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != tag {
		return params.Typef(path, "line %d: want %s, got %q", node.Line, what, node.Value)
	}
	return nil
}

// yamlFields maps the yaml keys of t to field types, flattening inline
// embeds the way the decoder does.
func yamlFields(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("yaml")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if strings.Contains(opts, "inline") && ft.Kind() == reflect.Struct {
			for k, v := range yamlFields(ft) {
				out[k] = v
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		out[name] = f.Type
	}
	return out
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
