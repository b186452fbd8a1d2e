package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/tonimelisma/skydrive-go/internal/liveconnect"
)

// terminalConsent returns a consent function that prompts on out and reads
// the redirect URL from in, or nil when in is not a terminal.
func terminalConsent(in *os.File, out io.Writer) liveconnect.ConsentFunc {
	if !isatty.IsTerminal(in.Fd()) && !isatty.IsCygwinTerminal(in.Fd()) {
		return nil
	}

	return promptConsent(in, out)
}

type readResult struct {
	line string
	err  error
}

// promptConsent shows the authorize URL and reads back the URL the browser
// was redirected to. An empty line or EOF cancels. A read abandoned by a
// cancelled context stays pending, and the next prompt takes its line.
func promptConsent(in io.Reader, out io.Writer) liveconnect.ConsentFunc {
	reader := bufio.NewReader(in)

	var pending chan readResult

	return func(ctx context.Context, authorizeURL string) (string, error) {
		// Prompts must stay visible, so --quiet does not apply.
		fmt.Fprintf(out, "To sign in, open this URL in a browser:\n\n  %s\n\n", authorizeURL)
		fmt.Fprint(out, "After granting access, paste the address of the blank page you land on: ")

		if pending == nil {
			pending = make(chan readResult, 1)

			go func(ch chan<- readResult) {
				line, err := reader.ReadString('\n')
				ch <- readResult{line: line, err: err}
			}(pending)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r := <-pending:
			pending = nil
			line := strings.TrimSpace(r.line)

			if r.err != nil && !errors.Is(r.err, io.EOF) {
				return "", fmt.Errorf("reading redirect: %w", r.err)
			}

			if line == "" {
				return "", liveconnect.ErrConsentCancelled
			}

			return line, nil
		}
	}
}
