// Package oauth wraps the third-party identity provider handshake. The rest
// of the service only sees the opaque external identifier it yields.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Client ...
type Client struct {
	cfg *oauth2.Config
}

// New creates new instance of Client.
func New(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the provider's consent page url.
func (c *Client) AuthURL(state string) string {
	return c.cfg.AuthCodeURL(state)
}

// ExternalID exchanges the callback code and returns the provider's stable
// identifier of the authenticated user.
func (c *Client) ExternalID(ctx context.Context, code string) (string, error) {
	t, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	resp, err := c.cfg.Client(ctx, t).Get(userinfoURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch userinfo: status %d", resp.StatusCode)
	}

	var info struct {
		ID string `json:"id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode userinfo: %w", err)
	}

	if info.ID == "" {
		return "", fmt.Errorf("userinfo contains no id")
	}

	return info.ID, nil
}

// State returns a random value to be verified on callback.
func State() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random: %w", err)
	}

	return hex.EncodeToString(b), nil
}
