// Package powerbi is a minimal client for the slice of the Power BI REST
// API this tool needs: client-credential auth, workspace/item listing and
// DAX query execution against a dataset.
package powerbi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mbarros/fabricusage/internal/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAPIBaseURL   = "https://api.powerbi.com/v1.0/myorg"
	defaultLoginBaseURL = "https://login.microsoftonline.com"
	defaultScope        = "https://analysis.windows.net/powerbi/api/.default"
)

// Client talks to the Power BI REST API on behalf of one interactive
// session. The bearer token is held for the session only; expiry is the
// service's concern and a stale token simply fails the next call.
type Client struct {
	http     *http.Client
	apiURL   string
	loginURL string
	scope    string
	token    string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIBaseURL overrides the API base URL (tests).
func WithAPIBaseURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithLoginBaseURL overrides the login authority base URL (tests).
func WithLoginBaseURL(u string) Option {
	return func(c *Client) { c.loginURL = u }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:     http.DefaultClient,
		apiURL:   defaultAPIBaseURL,
		loginURL: defaultLoginBaseURL,
		scope:    defaultScope,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Authenticate exchanges the service-principal credentials for a bearer
// token via the tenant's v2.0 token endpoint. No retry, no refresh.
func (c *Client) Authenticate(ctx context.Context, creds core.Credentials) error {
	if !creds.Complete() {
		return &AuthError{Err: errors.New("tenant ID, client ID and client secret are all required")}
	}

	conf := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.loginURL, creds.TenantID),
		Scopes:       []string{c.scope},
	}

	tok, err := conf.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return &AuthError{Status: retrieveErr.Response.StatusCode, Err: err}
		}
		return &AuthError{Err: err}
	}
	if tok.AccessToken == "" {
		return &AuthError{Err: errors.New("token response has no access_token")}
	}

	c.token = tok.AccessToken
	return nil
}

// HasToken reports whether Authenticate has succeeded this session.
func (c *Client) HasToken() bool {
	return c.token != ""
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	return newJSONRequest(ctx, method, c.apiURL+path, c.token, body)
}
