// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Options configure a Printer.
type Options struct {
	Format   Format
	Color    bool // allow color; still off when the writer is not a terminal
	Markdown bool // render chat answers as markdown in text mode
}

// Printer writes results to out and diagnostics to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	opts   Options

	profile   termenv.Profile
	styles    Styles
	errStyles Styles

	mdOnce sync.Once
	md     *glamour.TermRenderer
}

// NewPrinter returns a Printer for the given writers.
func NewPrinter(out, errOut io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	p := &Printer{out: out, errOut: errOut, opts: opts}

	p.profile = colorProfile(out, opts.Color)
	p.styles = NewStyles(newRenderer(out, p.profile))
	p.errStyles = NewStyles(newRenderer(errOut, colorProfile(errOut, opts.Color)))
	return p
}

func colorProfile(w io.Writer, allowed bool) termenv.Profile {
	if !allowed {
		return termenv.Ascii
	}
	// EnvColorProfile is Ascii for non-terminals and honors NO_COLOR.
	return termenv.NewOutput(w).EnvColorProfile()
}

func newRenderer(w io.Writer, profile termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return r
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Format returns the output format.
func (p *Printer) Format() Format {
	return p.opts.Format
}

// Color reports whether stdout output is colored.
func (p *Printer) Color() bool {
	return p.profile != termenv.Ascii
}

// Out is the result writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// =============================================================================
// VALUES
// =============================================================================

// Print writes a value: a decoded JSON value or plain text.
func (p *Printer) Print(v any) error {
	switch p.opts.Format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return p.writeln(p.out, string(data))

	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		_, err = p.out.Write(data)
		return err

	default:
		if s, ok := v.(string); ok {
			return p.writeln(p.out, s)
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return p.writeln(p.out, Highlight(string(data), "json", p.profile))
	}
}

// Markdown writes a chat answer. In text mode with color it is rendered
// as markdown; otherwise it is printed like any other string.
func (p *Printer) Markdown(text string) error {
	if p.opts.Format != FormatText || !p.opts.Markdown || !p.Color() {
		return p.Print(text)
	}
	if r := p.markdownRenderer(); r != nil {
		if rendered, err := r.Render(text); err == nil {
			_, err = io.WriteString(p.out, rendered)
			return err
		}
	}
	return p.Print(text)
}

func (p *Printer) markdownRenderer() *glamour.TermRenderer {
	p.mdOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(terminalWidth(p.out)),
		)
		if err == nil {
			p.md = r
		}
	})
	return p.md
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 20 {
			return min(width-2, 120)
		}
	}
	return 80
}

// =============================================================================
// MESSAGES
// =============================================================================

// Success reports a completed action. Structured formats get
// {"message": msg} so scripts can still parse stdout.
func (p *Printer) Success(msg string) error {
	if p.opts.Format != FormatText {
		return p.Print(map[string]any{"message": msg})
	}
	return p.writeln(p.out, p.styles.Success.Render(IconSuccess+" "+msg))
}

// Info writes a hint to the error writer.
func (p *Printer) Info(msg string) {
	p.writeln(p.errOut, p.errStyles.Muted.Render(IconInfo+" "+msg))
}

// Warn writes a warning to the error writer.
func (p *Printer) Warn(msg string) {
	p.writeln(p.errOut, p.errStyles.Warning.Render(IconWarning+" "+msg))
}

// Error writes err as a single line to the error writer.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	p.writeln(p.errOut, p.errStyles.Error.Render(IconError+" "+oneLine(err.Error())))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (p *Printer) writeln(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
