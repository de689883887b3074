// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation collects invariant violations for configuration objects.
//
// A Report gathers every violated rule for one object and turns them into a
// single *Error, so callers see all problems at once instead of fixing them
// one round trip at a time. Field rules are declared with validator/v10 struct
// tags and checked through the shared instance returned by Validator; rules
// spanning several fields are added by hand with Add or Check.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every *Error via errors.Is.
var ErrValidation = errors.New("validation failed")

// Violation is one broken invariant.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error enumerates every violation found while validating Object.
type Error struct {
	Object     string      `json:"object"`
	Violations []Violation `json:"violations"`
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("%s is invalid (%d violation(s)): %s",
		e.Object, len(e.Violations), strings.Join(parts, "; "))
}

// Is reports whether target is ErrValidation.
func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// Fields returns the violated field paths in report order.
func (e *Error) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

// Has reports whether field (or a path below it) was violated.
func (e *Error) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field || strings.HasPrefix(v.Field, field+".") {
			return true
		}
	}
	return false
}

var (
	sharedOnce sync.Once
	shared     *validator.Validate
)

// Validator returns the process-wide validator instance.
//
// Field names in reports are taken from the yaml tag, so a violation names
// the same key a user wrote in the configuration tree.
func Validator() *validator.Validate {
	sharedOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		shared = v
	})
	return shared
}

// Report accumulates violations for a single object.
type Report struct {
	object     string
	violations []Violation
}

// NewReport starts an empty report for object.
func NewReport(object string) *Report {
	return &Report{object: object}
}

// Add records a violation.
func (r *Report) Add(field, message string) {
	r.violations = append(r.violations, Violation{Field: field, Message: message})
}

// Addf records a violation with a formatted message.
func (r *Report) Addf(field, format string, args ...any) {
	r.Add(field, fmt.Sprintf(format, args...))
}

// Check records message against field when ok is false.
func (r *Report) Check(ok bool, field, message string) {
	if !ok {
		r.Add(field, message)
	}
}

// Struct runs the tag rules of v and records every failure.
func (r *Report) Struct(v any) {
	err := Validator().Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		r.Add("", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		r.Add(fieldPath(fe), describe(fe))
	}
}

// Merge folds err into the report under prefix. Violations of a nested
// *Error keep their own paths, prefixed; any other error becomes a single
// violation on prefix.
func (r *Report) Merge(prefix string, err error) {
	if err == nil {
		return
	}
	var verr *Error
	if !errors.As(err, &verr) {
		r.Add(prefix, err.Error())
		return
	}
	for _, v := range verr.Violations {
		field := v.Field
		switch {
		case prefix == "":
		case field == "":
			field = prefix
		default:
			field = prefix + "." + field
		}
		r.Add(field, v.Message)
	}
}

// Len returns the number of violations recorded so far.
func (r *Report) Len() int {
	return len(r.violations)
}

// Err returns nil for a clean report, otherwise an *Error holding a copy of
// the violations.
func (r *Report) Err() error {
	if len(r.violations) == 0 {
		return nil
	}
	return &Error{
		Object:     r.object,
		Violations: append([]Violation(nil), r.violations...),
	}
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must be set"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " element(s)"
	case "max":
		return "must have at most " + fe.Param() + " element(s)"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
