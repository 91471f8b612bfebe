// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// shell.go - Interactive prompt that runs ptso command lines against one
// long-lived App, with line editing and history when stdin is a terminal.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

const shellPrompt = "ptso> "

func (a *App) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt for ptso commands",
		Long: `Start an interactive prompt. Each line is a ptso command without the
leading "ptso", for example:

  ptso> user login me@example.com
  ptso> analyze phone 0912345678
  ptso> chat stream "xin chao"

Ctrl+C cancels the running command; Ctrl+D or "exit" leaves. A login or
logout in another terminal is picked up immediately.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.inShell {
				return usagef("already in a shell")
			}
			return a.runShell(cmd.Context())
		},
	}
}

func (a *App) runShell(ctx context.Context) error {
	a.inShell = true
	defer func() { a.inShell = false }()

	// Interrupts cancel single lines, not the shell.
	lineBase := context.WithoutCancel(ctx)

	watchCtx, stopWatch := context.WithCancel(lineBase)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if a.fileStore == nil {
			return
		}
		err := a.fileStore.Watch(watchCtx, func() {
			a.log.Info("state file changed, reloaded")
		})
		if err != nil {
			a.log.Warn("not watching state file", zap.Error(err))
		}
	}()
	defer func() {
		stopWatch()
		<-watchDone
	}()

	lines := a.newLineReader()
	defer lines.Close()

	startFlags := a.flags
	a.printer.Info(`ptso shell; "help" lists commands, "exit" leaves`)
	for {
		a.flags = startFlags

		input, err := lines.Prompt(shellPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.errOut)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		words, err := splitLine(input)
		if err != nil {
			a.printer.Error(&usageError{err: err})
			continue
		}
		if len(words) == 0 {
			continue
		}
		lines.AppendHistory(input)

		switch words[0] {
		case "exit", "quit":
			return nil
		case "help":
			words = append(words[1:], "--help")
		case "ptso":
			words = words[1:]
		}

		if code := a.Run(lineBase, words); code != ExitSuccess {
			a.log.Debug("command failed", zap.Strings("args", words[:1]), zap.Int("exit", code))
		}
	}
}

// =============================================================================
// LINE INPUT
// =============================================================================

type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// newLineReader uses liner on a terminal and a plain scanner otherwise,
// so scripts can pipe commands into the shell.
func (a *App) newLineReader() lineReader {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return newEditor()
	}
	return &scanReader{scanner: bufio.NewScanner(a.in)}
}

// editor is a liner prompt with history persisted in the ptso directory.
type editor struct {
	line        *liner.State
	historyFile string
}

func newEditor() *editor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	e := &editor{line: line}
	if dir, err := config.Dir(); err == nil {
		e.historyFile = filepath.Join(dir, "shell_history")
		if f, err := os.Open(e.historyFile); err == nil {
			e.line.ReadHistory(f)
			f.Close()
		}
	}
	return e
}

func (e *editor) Prompt(prompt string) (string, error) {
	return e.line.Prompt(prompt)
}

func (e *editor) AppendHistory(line string) {
	e.line.AppendHistory(line)
}

// Close saves history with owner-only permissions and restores the terminal.
func (e *editor) Close() error {
	if e.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
			if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				e.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	return e.line.Close()
}

type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) AppendHistory(string) {}
func (r *scanReader) Close() error         { return nil }

// =============================================================================
// LINE SPLITTING
// =============================================================================

// splitLine splits a command line into words. Single and double quotes
// group words; inside quotes a backslash escapes a quote or backslash.
func splitLine(input string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range input {
		switch {
		case escaped:
			if r != quote && r != '\\' {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			escaped = false

		case quote != 0:
			switch r {
			case quote:
				quote = 0
			case '\\':
				escaped = true
			default:
				current.WriteRune(r)
			}

		case r == '"' || r == '\'':
			quote = r
			inWord = true

		case unicode.IsSpace(r):
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}

		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inWord {
		words = append(words, current.String())
	}
	return words, nil
}
