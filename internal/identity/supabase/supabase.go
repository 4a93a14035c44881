// Package supabase implements the identity service contract on top of
// a hosted Supabase auth API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/mocknhire/mocknhire/internal/identity"
	"github.com/mocknhire/mocknhire/internal/krypto"
)

// Settings contains the settings for the Supabase auth API.
type Settings struct {
	// APIURL is the base URL of the project, without a trailing slash.
	APIURL *url.URL
	// APIKey is the anon API key.
	APIKey krypto.Secret
	// OAuthProvider is the provider used for redirect based sign-in.
	OAuthProvider string
	// OAuthRedirectURL is where the provider sends the browser after
	// consent.
	OAuthRedirectURL string
}

// Client authenticates against the Supabase auth API. It keeps the
// access token of the current session in memory, so the durable
// session only outlives this process on the service side.
type Client struct {
	client   *http.Client
	settings Settings

	mu          sync.Mutex
	accessToken string
}

// New creates a new client.
func New(client *http.Client, s Settings) *Client {
	return &Client{
		client:   client,
		settings: s,
	}
}

type credentialsJSON struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

type userJSON struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"user_metadata"`
}

type sessionJSON struct {
	AccessToken string    `json:"access_token"`
	User        *userJSON `json:"user"`
}

type errorJSON struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (e errorJSON) message() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Msg != "":
		return e.Msg
	}
	return e.Error
}

func (c *Client) SignIn(ctx context.Context, email, password string) (identity.AuthData, error) {
	body := credentialsJSON{Email: email, Password: password}

	var sess sessionJSON
	status, err := c.post(ctx, "/auth/v1/token?grant_type=password", body, &sess)
	if err != nil {
		return identity.AuthData{}, err
	}

	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return identity.AuthData{}, identity.ErrInvalidCredentials
	}

	return c.storeSession(sess)
}

func (c *Client) SignUp(ctx context.Context, email, password, name string, role identity.Role) (identity.AuthData, error) {
	body := credentialsJSON{
		Email:    email,
		Password: password,
		Data: map[string]string{
			"name": name,
			"role": string(role),
		},
	}

	var sess sessionJSON
	if _, err := c.post(ctx, "/auth/v1/signup", body, &sess); err != nil {
		return identity.AuthData{}, err
	}

	return c.storeSession(sess)
}

// SignInWithOAuth returns the authorize URL for the configured
// provider. No session is established until the provider redirects
// back and CurrentSession is consulted.
func (c *Client) SignInWithOAuth(_ context.Context) (string, error) {
	if c.settings.OAuthProvider == "" {
		return "", fmt.Errorf("no oauth provider configured")
	}

	u := *c.settings.APIURL
	u.Path += "/auth/v1/authorize"

	q := u.Query()
	q.Set("provider", c.settings.OAuthProvider)
	if c.settings.OAuthRedirectURL != "" {
		q.Set("redirect_to", c.settings.OAuthRedirectURL)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.accessToken
	c.accessToken = ""
	c.mu.Unlock()

	if token == "" {
		return nil
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout did not succeed, status code %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) CurrentSession(ctx context.Context) (identity.AuthData, error) {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	if token == "" {
		return identity.AuthData{}, identity.ErrNoSession
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return identity.AuthData{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return identity.AuthData{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return identity.AuthData{}, identity.ErrNoSession
	}

	var user userJSON
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return identity.AuthData{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return toAuthData(&user)
}

// post sends a JSON request and decodes the response into out. It
// returns the status code so callers can map credential rejections,
// other error statuses are returned as errors directly.
func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(body); err != nil {
		return 0, fmt.Errorf("failed to encode request json: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &b)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr errorJSON
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return resp.StatusCode, fmt.Errorf("request did not succeed, status code %d", resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("request did not succeed: %s", apiErr.message())
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Buffer) (*http.Request, error) {
	u := c.settings.APIURL.String() + path

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", string(c.settings.APIKey.SecretValue()))

	return req, nil
}

func (c *Client) storeSession(sess sessionJSON) (identity.AuthData, error) {
	data, err := toAuthData(sess.User)
	if err != nil {
		return identity.AuthData{}, err
	}

	c.mu.Lock()
	c.accessToken = sess.AccessToken
	c.mu.Unlock()

	return data, nil
}

// toAuthData maps the API user record to auth data. A user without the
// name and role metadata yields auth data without a profile, deciding
// what that means is up to the caller.
func toAuthData(user *userJSON) (identity.AuthData, error) {
	if user == nil {
		return identity.AuthData{}, nil
	}

	id, err := uuid.Parse(user.ID)
	if err != nil {
		return identity.AuthData{}, fmt.Errorf("invalid user id in response: %w", err)
	}

	data := identity.AuthData{
		User: &identity.User{ID: id, Email: user.Email},
	}

	role, err := identity.ParseRole(user.UserMetadata.Role)
	if err != nil || user.UserMetadata.Name == "" {
		return data, nil
	}

	data.Profile = &identity.Profile{
		UserID: id,
		Email:  user.Email,
		Name:   user.UserMetadata.Name,
		Role:   role,
	}

	return data, nil
}
