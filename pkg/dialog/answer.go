package dialog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Serve resolves dialogs of m with answer until m is closed or ctx is done.
func Serve(ctx context.Context, m *Manager, answer func(Request) Outcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-m.Requests():
			if !ok {
				return
			}
			p.Resolve(answer(p.Request))
		}
	}
}

// Terminal answers dialogs by asking on a text terminal.
//
// Confirmations accept "y" or "yes" (case insensitive). Others are refusals.
// When input reaches EOF, dialogs are dismissed.
func Terminal(in io.Reader, out io.Writer) func(Request) Outcome {
	scanner := bufio.NewScanner(in)
	readLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	return func(req Request) Outcome {
		if req.Title != "" {
			fmt.Fprintf(out, "[%s] ", req.Title)
		}
		switch req.Kind {
		case Alert:
			fmt.Fprintln(out, req.Message)
			return Outcome{Confirmed: true}
		case Prompt:
			if req.Default != "" {
				fmt.Fprintf(out, "%s (%s): ", req.Message, req.Default)
			} else {
				fmt.Fprintf(out, "%s: ", req.Message)
			}
			line, ok := readLine()
			if !ok {
				return Outcome{}
			}
			if line == "" {
				line = req.Default
			}
			return Outcome{Confirmed: true, Value: line}
		default:
			fmt.Fprintf(out, "%s [y/N]: ", req.Message)
			line, ok := readLine()
			if !ok {
				return Outcome{}
			}
			switch strings.ToLower(line) {
			case "y", "yes":
				return Outcome{Confirmed: true}
			}
			return Outcome{}
		}
	}
}

// Always answers every dialog with the outcome. This is for non-interactive use.
func Always(o Outcome) func(Request) Outcome {
	return func(Request) Outcome { return o }
}
