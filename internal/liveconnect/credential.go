package liveconnect

import "time"

// safetyMargin is subtracted from a credential's nominal lifetime so a token
// never expires while a request is in flight.
const safetyMargin = 10 * time.Second

// Credential is a token endpoint response (or the equivalent fields of an
// implicit-grant redirect). It is replaced wholesale, never merged.
type Credential struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// State is the externally visible authentication state.
type State int

const (
	StateUnauthenticated State = iota
	StateValid
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// tokenState is the current credential plus the instant it was issued.
// The zero value is unauthenticated and already expired.
type tokenState struct {
	cred   Credential
	issued time.Time
}

func newTokenState(cred Credential, issued time.Time) tokenState {
	return tokenState{cred: cred, issued: issued}
}

// expiry is the nominal expiry reported by the provider.
func (s tokenState) expiry() time.Time {
	return s.issued.Add(time.Duration(s.cred.ExpiresIn) * time.Second)
}

// validUntil is the nominal expiry minus the safety margin.
func (s tokenState) validUntil() time.Time {
	if s.issued.IsZero() {
		return time.Time{}
	}

	return s.expiry().Add(-safetyMargin)
}

// validAt reports whether the credential is usable at instant t.
func (s tokenState) validAt(t time.Time) bool {
	return t.Before(s.validUntil())
}

func (s tokenState) stateAt(t time.Time) State {
	switch {
	case s.cred.AccessToken == "":
		return StateUnauthenticated
	case s.validAt(t):
		return StateValid
	default:
		return StateExpired
	}
}
