package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore_RoundTrip(t *testing.T) {
	keyring.MockInit()

	s := NewKeyringStore("", nil)
	assert.Equal(t, DefaultAccount, s.Account())

	_, err := s.ReadConfig()
	require.ErrorIs(t, err, ErrNoConfig)

	require.NoError(t, s.WriteConfig(`{"client_id":"a"}`))

	text, err := s.ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, `{"client_id":"a"}`, text)

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())

	_, err = s.ReadConfig()
	require.ErrorIs(t, err, ErrNoConfig)
}

func TestKeyringStore_AccountsAreSeparate(t *testing.T) {
	keyring.MockInit()

	work := NewKeyringStore("work", nil)
	home := NewKeyringStore("home", nil)

	require.NoError(t, work.WriteConfig("w"))
	require.NoError(t, home.WriteConfig("h"))

	text, err := work.ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, "w", text)
}
