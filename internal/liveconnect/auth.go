package liveconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// GrantKind selects the OAuth flow used for interactive authentication.
type GrantKind string

const (
	GrantCode     GrantKind = "code"
	GrantImplicit GrantKind = "token"
)

// Token endpoint grant_type values.
const (
	grantTypeAuthCode = "authorization_code"
	grantTypeRefresh  = "refresh_token"
)

// ConsentFunc shows authorizeURL to the user and returns the query string
// (or fragment) of the redirect that completed consent. It returns
// ErrConsentCancelled if the user abandons the prompt.
type ConsentFunc func(ctx context.Context, authorizeURL string) (string, error)

// Endpoints are the fixed Live Connect URLs. Tests replace them.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	RedirectURL  string
	APIBase      string
}

// DefaultEndpoints are the production Live Connect endpoints.
var DefaultEndpoints = Endpoints{
	AuthorizeURL: "https://oauth.live.com/authorize",
	TokenURL:     "https://oauth.live.com/token",
	RedirectURL:  "https://oauth.live.com/desktop",
	APIBase:      "https://beta.apis.live.net/v5.0",
}

// Options configures an Engine or Client. The zero value is usable: it talks
// to DefaultEndpoints over http.DefaultClient with no consent function.
type Options struct {
	HTTPClient *http.Client
	Consent    ConsentFunc
	Endpoints  Endpoints
	Logger     *slog.Logger
	UserAgent  string
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}

	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	if o.Endpoints == (Endpoints{}) {
		o.Endpoints = DefaultEndpoints
	}

	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}

	return o
}

// Engine owns the current credential and the client config. It decides when
// to refresh and when to fall back to interactive consent, and persists the
// config after every credential it obtains.
type Engine struct {
	mu         sync.Mutex
	cfg        *Config
	store      ConfigStore
	consent    ConsentFunc
	endpoints  Endpoints
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	state      tokenState

	// nowFunc returns the current time. Tests override it to move the clock.
	nowFunc func() time.Time
}

// NewEngine reads the config from store and returns an unauthenticated Engine.
func NewEngine(store ConfigStore, opts Options) (*Engine, error) {
	opts = opts.withDefaults()

	text, err := store.ReadConfig()
	if err != nil {
		return nil, fmt.Errorf("liveconnect: reading config: %w", err)
	}

	cfg, err := parseConfig(text)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:        cfg,
		store:      store,
		consent:    opts.Consent,
		endpoints:  opts.Endpoints,
		httpClient: opts.HTTPClient,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
		nowFunc:    time.Now,
	}, nil
}

// EnsureAuthenticated is a no-op while the credential is valid. Otherwise it
// refreshes when a refresh token is known, and falls back to an interactive
// code grant when there is none or the refresh fails.
func (e *Engine) EnsureAuthenticated(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.validAt(e.nowFunc()) {
		return nil
	}

	if e.cfg.RefreshToken == "" {
		return e.authenticateLocked(ctx, GrantCode)
	}

	refreshErr := e.refreshLocked(ctx)
	if refreshErr == nil {
		return nil
	}

	if e.consent == nil {
		return refreshErr
	}

	e.logger.Warn("refresh failed, falling back to interactive authentication",
		slog.String("error", refreshErr.Error()),
	)

	return e.authenticateLocked(ctx, GrantCode)
}

// Authenticate runs an interactive grant of the given kind. A config without
// a client secret always uses the implicit grant.
func (e *Engine) Authenticate(ctx context.Context, grant GrantKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.authenticateLocked(ctx, grant)
}

// Refresh exchanges the stored refresh token for a new credential.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.refreshLocked(ctx)
}

func (e *Engine) authenticateLocked(ctx context.Context, grant GrantKind) error {
	if e.consent == nil {
		return &AuthError{
			Code:        codeAccessDenied,
			Description: "No interactive consent available to request authentication.",
			Err:         ErrInteractionUnavailable,
		}
	}

	if e.cfg.ClientSecret == "" {
		grant = GrantImplicit
	}

	e.logger.Info("starting interactive authentication", slog.String("grant", string(grant)))

	redirect, err := e.consent(ctx, e.authorizeURL(grant))
	if errors.Is(err, ErrConsentCancelled) {
		return &AuthError{
			Code:        codeAccessDenied,
			Description: "User cancelled authentication.",
			Err:         err,
		}
	}

	if err != nil {
		return fmt.Errorf("liveconnect: consent: %w", err)
	}

	q, err := parseRedirect(redirect)
	if err != nil {
		return err
	}

	switch {
	case grant == GrantCode && q.Get("code") != "":
		cred, err := e.requestToken(ctx, grantTypeAuthCode, "code", q.Get("code"))
		if err != nil {
			return err
		}

		return e.storeLocked(cred)
	case grant == GrantImplicit && q.Get("access_token") != "":
		expiresIn, err := strconv.Atoi(q.Get("expires_in"))
		if err != nil {
			return fmt.Errorf("liveconnect: invalid expires_in %q in redirect: %w", q.Get("expires_in"), ErrInvalidResponse)
		}

		return e.storeLocked(Credential{
			AccessToken: q.Get("access_token"),
			ExpiresIn:   expiresIn,
			Scope:       q.Get("scope"),
			TokenType:   q.Get("token_type"),
		})
	default:
		code := q.Get("error")
		if code == "" {
			code = codeAccessDenied
		}

		desc := q.Get("error_description")
		if desc == "" {
			desc = "Unknown error."
		}

		return &AuthError{Code: code, Description: desc}
	}
}

func (e *Engine) refreshLocked(ctx context.Context) error {
	if e.cfg.RefreshToken == "" {
		return &AuthError{Code: "invalid_request", Description: "No refresh token available."}
	}

	e.logger.Info("refreshing access token")

	cred, err := e.requestToken(ctx, grantTypeRefresh, "refresh_token", e.cfg.RefreshToken)
	if err != nil {
		return err
	}

	return e.storeLocked(cred)
}

// requestToken calls the token endpoint. Failures are classified with the
// OAuth error shape.
func (e *Engine) requestToken(ctx context.Context, grantType, key, value string) (Credential, error) {
	tokenURL := buildURL(e.endpoints.TokenURL, [][2]string{
		{"client_id", e.cfg.ClientID},
		{"redirect_uri", e.endpoints.RedirectURL},
		{"client_secret", e.cfg.ClientSecret},
		{"grant_type", grantType},
		{key, value},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("liveconnect: creating token request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("liveconnect: token request (%s): %w", grantType, redactURLError(err, e.endpoints.TokenURL))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, fmt.Errorf("liveconnect: reading token response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Credential{}, classifyFailure(resp, body, shapeOAuth)
	}

	var cred Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return Credential{}, fmt.Errorf("liveconnect: decoding token response: %w", err)
	}

	if cred.AccessToken == "" {
		return Credential{}, fmt.Errorf("liveconnect: token response without access_token: %w", ErrInvalidResponse)
	}

	return cred, nil
}

// storeLocked installs cred as the current credential and persists the
// config. The stored refresh token rotates only when cred carries a new one.
func (e *Engine) storeLocked(cred Credential) error {
	e.state = newTokenState(cred, e.nowFunc())

	if cred.RefreshToken != "" {
		e.cfg.RefreshToken = cred.RefreshToken
	}

	e.logger.Info("access token acquired",
		slog.Time("valid_until", e.state.validUntil()),
		slog.String("scope", cred.Scope),
		slog.Bool("can_refresh", e.cfg.RefreshToken != ""),
	)

	text, err := e.cfg.encode()
	if err != nil {
		return err
	}

	if err := e.store.WriteConfig(text); err != nil {
		return fmt.Errorf("liveconnect: persisting config: %w", err)
	}

	e.logger.Debug("persisted config")

	return nil
}

func (e *Engine) authorizeURL(grant GrantKind) string {
	return buildURL(e.endpoints.AuthorizeURL, [][2]string{
		{"client_id", e.cfg.ClientID},
		{"redirect_uri", e.endpoints.RedirectURL},
		{"response_type", string(grant)},
		{"scope", e.cfg.Scopes},
	})
}

// accessToken returns the current access token, which may be empty.
func (e *Engine) accessToken() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.cred.AccessToken
}

// IsAuthenticated reports whether the current credential is still valid.
func (e *Engine) IsAuthenticated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.validAt(e.nowFunc())
}

// State returns the current authentication state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.stateAt(e.nowFunc())
}

// TimeRemaining is the time left before the credential stops being valid.
// It is negative once the credential has expired.
func (e *Engine) TimeRemaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.issued.IsZero() {
		return 0
	}

	return e.state.validUntil().Sub(e.nowFunc())
}

// CanRefresh reports whether a refresh token is known.
func (e *Engine) CanRefresh() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg.RefreshToken != ""
}

// Scopes returns the scopes requested by the config.
func (e *Engine) Scopes() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg.Scopes
}

func (e *Engine) String() string {
	return fmt.Sprintf("liveconnect: state=%s remaining=%s can_refresh=%t",
		e.State(), e.TimeRemaining().Round(time.Second), e.CanRefresh())
}

// Token makes Engine an oauth2.TokenSource. It authenticates if needed and
// returns the current credential with its nominal expiry.
func (e *Engine) Token() (*oauth2.Token, error) {
	if err := e.EnsureAuthenticated(context.Background()); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return &oauth2.Token{
		AccessToken:  e.state.cred.AccessToken,
		TokenType:    e.state.cred.TokenType,
		RefreshToken: e.cfg.RefreshToken,
		Expiry:       e.state.expiry(),
	}, nil
}

// buildURL appends query parameters to base, keeping their order.
func buildURL(base string, params [][2]string) string {
	var b strings.Builder

	b.WriteString(base)

	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}

	return b.String()
}

// parseRedirect extracts the parameters from a consent redirect. It accepts
// a full redirect URL, a "?query", a "#fragment", or a bare query string.
// A full URL prefers its query and falls back to its fragment.
func parseRedirect(redirect string) (url.Values, error) {
	redirect = strings.TrimSpace(redirect)

	raw := redirect
	if u, err := url.Parse(redirect); err == nil && u.Scheme != "" {
		raw = u.RawQuery
		if raw == "" {
			raw = u.EscapedFragment()
		}
	} else {
		raw = strings.TrimLeft(raw, "?#")
	}

	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("liveconnect: parsing consent redirect: %w", err)
	}

	return q, nil
}
