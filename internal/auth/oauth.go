package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sakif/aurabetz/internal/model"
)

// IdentityProvider is the external sign-in service.
// The HTTP layer depends on this interface so tests can swap in a fake one.
type IdentityProvider interface {
	// AuthURL is where to send the browser to start signing in.
	AuthURL(state string) string
	// Exchange trades the callback code for the signed-in identity.
	Exchange(ctx context.Context, code string) (*model.Identity, error)
}

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// googleUser is the part of the OpenID Connect userinfo response we use.
type googleUser struct {
	Sub     string `json:"sub"` // stable Google account id
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleProvider wraps golang.org/x/oauth2 for Google's Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The server redirects the user to Google with our ClientID and scopes.
//  2. The user picks an account and approves.
//  3. Google redirects back to CallbackURL with a short-lived "code".
//  4. The server exchanges the code for an access token (server-to-server,
//     using ClientSecret; the token never reaches the browser).
//  5. The server calls the userinfo endpoint with that token.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

var _ IdentityProvider = (*GoogleProvider)(nil)

// NewGoogleProvider creates a GoogleProvider.
//
// Credentials come from an OAuth client in the Google Cloud console.
// callbackURL must be listed there as an authorized redirect URI.
// Example: "http://localhost:8080/auth/google/callback"
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthURL returns the Google consent URL. state is echoed back on the
// callback and compared against the state cookie (CSRF protection).
// prompt=select_account always shows the account chooser.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange completes the flow: code → access token → userinfo → Identity.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*model.Identity, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// The returned client adds "Authorization: Bearer <token>" to each request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo returned status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo: %w", err)
	}
	if gu.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned a user without sub")
	}

	return &model.Identity{
		ID:       gu.Sub,
		Email:    gu.Email,
		Name:     gu.Name,
		PhotoURL: gu.Picture,
	}, nil
}
