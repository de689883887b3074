// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders sansbatch terminal output.
//
// A Printer writes either styled output for people or tab-separated plain
// lines for scripts. NewPrinter picks styled output only when the writer is
// a terminal.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	ColorAccent  = lipgloss.Color("#2CD7C7")
	ColorPrimary = lipgloss.Color("#20B9B4")
	ColorBorder  = lipgloss.Color("#16858E")
	ColorMuted   = lipgloss.Color("#5C7A84")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles are the lipgloss styles a styled Printer uses.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
	Key     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorAccent),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
	Key: lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
}

// Icon is a status marker.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
)

func (i Icon) render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes user-facing output.
type Printer struct {
	out    io.Writer
	styled bool
}

// NewPrinter styles output when out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{out: out, styled: styled}
}

// NewPlainPrinter never styles.
func NewPlainPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Styled reports whether the printer renders styles.
func (p *Printer) Styled() bool { return p.styled }

func (p *Printer) Title(text string) {
	if !p.styled {
		return
	}
	fmt.Fprintln(p.out, Styles.Title.Render(text))
}

func (p *Printer) Success(text string) { p.status(IconSuccess, "OK", text, Styles.Success) }
func (p *Printer) Warning(text string) { p.status(IconWarning, "WARN", text, Styles.Warning) }
func (p *Printer) Error(text string)   { p.status(IconError, "ERROR", text, Styles.Error) }

func (p *Printer) status(icon Icon, tag, text string, style lipgloss.Style) {
	if !p.styled {
		fmt.Fprintf(p.out, "%s: %s\n", tag, text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", icon.render(), style.Render(text))
}

func (p *Printer) Info(text string) {
	if !p.styled {
		fmt.Fprintln(p.out, text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", Styles.Muted.Render("│"), text)
}

// Box prints content under a title, framed when styled.
func (p *Printer) Box(title, content string) {
	if !p.styled {
		fmt.Fprintf(p.out, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.out, Styles.Box.Width(72).Render(Styles.Title.Render(title)+"\n"+content))
}

// EntryStatus is one line of a batch report.
type EntryStatus struct {
	Key    string `json:"key"`
	Status Icon   `json:"status"`
	// Detail is shown after the key, for example an output name or error.
	Detail string `json:"detail,omitempty"`
	// Problems are listed under the entry, one per line.
	Problems []string `json:"problems,omitempty"`
}

// Entries prints one line per batch entry. Plain output is
// "<status>\t<key>\t<detail>" followed by "\t\t<problem>" lines.
func (p *Printer) Entries(entries []EntryStatus) {
	for _, e := range entries {
		if !p.styled {
			fmt.Fprintf(p.out, "%s\t%s\t%s\n", plainStatus(e.Status), e.Key, e.Detail)
			for _, pr := range e.Problems {
				fmt.Fprintf(p.out, "\t\t%s\n", pr)
			}
			continue
		}
		line := fmt.Sprintf("%s %s", e.Status.render(), Styles.Key.Render(e.Key))
		if e.Detail != "" {
			line += " " + Styles.Muted.Render(e.Detail)
		}
		fmt.Fprintln(p.out, line)
		for _, pr := range e.Problems {
			fmt.Fprintf(p.out, "    %s %s\n", IconArrow.render(), pr)
		}
	}
}

func plainStatus(i Icon) string {
	switch i {
	case IconSuccess:
		return "ok"
	case IconError:
		return "failed"
	case IconWarning:
		return "warn"
	default:
		return "skipped"
	}
}

// Counts prints the closing totals of a batch.
func (p *Printer) Counts(ok, failed, skipped int) {
	if !p.styled {
		fmt.Fprintf(p.out, "SUMMARY: ok=%d failed=%d skipped=%d\n", ok, failed, skipped)
		return
	}
	parts := []string{
		Styles.Success.Render(fmt.Sprint(ok)) + " " + Styles.Muted.Render("ok"),
		Styles.Error.Render(fmt.Sprint(failed)) + " " + Styles.Muted.Render("failed"),
		Styles.Bold.Render(fmt.Sprint(skipped)) + " " + Styles.Muted.Render("skipped"),
	}
	fmt.Fprintf(p.out, "\n%s\n", strings.Join(parts, "  "))
}
