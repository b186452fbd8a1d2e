package liveconnect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// bootstrapClientID is the Live Connect application used only to register
// new applications on the user's behalf.
const (
	bootstrapClientID = "0000000044066909"
	bootstrapScopes   = "wl.applications wl.applications_create"
)

// User is the "me" resource.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type applicationCreate struct {
	Name               string `json:"name"`
	URI                string `json:"uri,omitempty"`
	TermsOfServiceLink string `json:"terms_of_service_link,omitempty"`
	PrivacyLink        string `json:"privacy_link,omitempty"`
}

// Application is a registered Live Connect application.
type Application struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ClientID           string `json:"client_id"`
	ClientSecret       string `json:"client_secret"`
	TermsOfServiceLink string `json:"terms_of_service_link"`
	PrivacyLink        string `json:"privacy_link"`
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	u, err := Get[User](ctx, c, "me")
	if err != nil {
		return nil, fmt.Errorf("liveconnect: fetching user profile: %w", err)
	}

	return &u, nil
}

// RegisterApplication creates a Live Connect application through an implicit
// grant on the bootstrap application, and returns a config JSON for the new
// application requesting scopes. opts.Consent must be set.
func RegisterApplication(
	ctx context.Context,
	opts Options,
	name, tosURL, privacyURL, scopes string,
) (string, error) {
	opts = opts.withDefaults()

	bootstrap, err := NewConfig(bootstrapClientID, "", bootstrapScopes)
	if err != nil {
		return "", err
	}

	c, err := NewClient(StoreFuncs{Read: func() (string, error) { return bootstrap, nil }}, opts)
	if err != nil {
		return "", err
	}

	if err := c.engine.Authenticate(ctx, GrantImplicit); err != nil {
		return "", err
	}

	app, err := Put[applicationCreate, Application](ctx, c, "me/applications", applicationCreate{
		Name:               name,
		TermsOfServiceLink: tosURL,
		PrivacyLink:        privacyURL,
	}, http.MethodPost)
	if err != nil {
		return "", fmt.Errorf("liveconnect: registering application: %w", err)
	}

	opts.Logger.Info("registered application",
		slog.String("name", app.Name),
		slog.String("client_id", app.ClientID),
	)

	return NewConfig(app.ClientID, app.ClientSecret, scopes)
}
