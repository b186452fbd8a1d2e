package liveconnect

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Config is the persisted client identity. Only RefreshToken changes after
// construction, and only the Engine writes it.
type Config struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Scopes       string `json:"scopes"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ConfigStore reads and writes the Config JSON as opaque text.
type ConfigStore interface {
	ReadConfig() (string, error)
	WriteConfig(text string) error
}

// NewConfig returns the JSON text of a fresh config with no refresh token.
func NewConfig(clientID, clientSecret, scopes string) (string, error) {
	cfg := &Config{ClientID: clientID, ClientSecret: clientSecret, Scopes: scopes}
	if err := cfg.validate(); err != nil {
		return "", err
	}

	return cfg.encode()
}

func parseConfig(text string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(text), &cfg); err != nil {
		return nil, fmt.Errorf("liveconnect: decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ClientID == "" {
		return errors.New("liveconnect: config missing client_id")
	}

	return nil
}

func (c *Config) encode() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("liveconnect: encoding config: %w", err)
	}

	return string(data), nil
}

// StoreFuncs adapts a pair of callbacks to ConfigStore. A nil Write discards
// updates, which suits clients whose config is never persisted.
type StoreFuncs struct {
	Read  func() (string, error)
	Write func(text string) error
}

func (f StoreFuncs) ReadConfig() (string, error) {
	if f.Read == nil {
		return "", errors.New("liveconnect: no config reader")
	}

	return f.Read()
}

func (f StoreFuncs) WriteConfig(text string) error {
	if f.Write == nil {
		return nil
	}

	return f.Write(text)
}

// MemoryStore keeps the config text in memory and counts writes.
type MemoryStore struct {
	mu     sync.Mutex
	text   string
	writes int
}

// NewMemoryStore returns a MemoryStore seeded with text.
func NewMemoryStore(text string) *MemoryStore {
	return &MemoryStore{text: text}
}

func (m *MemoryStore) ReadConfig() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.text, nil
}

func (m *MemoryStore) WriteConfig(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.text = text
	m.writes++

	return nil
}

// Text returns the last written (or seeded) config text.
func (m *MemoryStore) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.text
}

// Writes returns how many times WriteConfig has been called.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}
