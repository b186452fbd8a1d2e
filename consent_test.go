package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/skydrive-go/internal/liveconnect"
)

func TestPromptConsent_ReturnsRedirect(t *testing.T) {
	var out bytes.Buffer

	consent := promptConsent(strings.NewReader("  https://oauth.live.com/desktop?code=abc \n"), &out)

	redirect, err := consent(t.Context(), "https://oauth.live.com/authorize?client_id=x")
	require.NoError(t, err)
	assert.Equal(t, "https://oauth.live.com/desktop?code=abc", redirect)
	assert.Contains(t, out.String(), "https://oauth.live.com/authorize?client_id=x")
}

func TestPromptConsent_NoTrailingNewline(t *testing.T) {
	consent := promptConsent(strings.NewReader("#access_token=t&expires_in=60"), io.Discard)

	redirect, err := consent(t.Context(), "u")
	require.NoError(t, err)
	assert.Equal(t, "#access_token=t&expires_in=60", redirect)
}

func TestPromptConsent_EmptyCancels(t *testing.T) {
	for _, input := range []string{"", "\n", "   \n"} {
		consent := promptConsent(strings.NewReader(input), io.Discard)

		_, err := consent(t.Context(), "u")
		assert.ErrorIs(t, err, liveconnect.ErrConsentCancelled, "input %q", input)
	}
}

func TestPromptConsent_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	consent := promptConsent(r, io.Discard)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := consent(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPromptConsent_AbandonedReadFeedsNextPrompt(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	consent := promptConsent(r, io.Discard)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := consent(ctx, "u")
	require.ErrorIs(t, err, context.Canceled)

	go func() {
		_, _ = io.WriteString(w, "https://oauth.live.com/desktop?code=first\n")
		_, _ = io.WriteString(w, "https://oauth.live.com/desktop?code=second\n")
	}()

	redirect, err := consent(t.Context(), "u")
	require.NoError(t, err)
	assert.Equal(t, "https://oauth.live.com/desktop?code=first", redirect)

	redirect, err = consent(t.Context(), "u")
	require.NoError(t, err)
	assert.Equal(t, "https://oauth.live.com/desktop?code=second", redirect)
}
