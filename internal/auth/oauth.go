package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubUserURL = "https://api.github.com/user"

// GitHubUser is the portion of the GitHub /user API response we care about.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID    int64  `json:"id"`    // GitHub's numeric user ID, stable across renames
	Login string `json:"login"` // becomes the local username
	Email string `json:"email"` // empty if hidden in GitHub settings
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The server redirects the user to GitHub's authorization endpoint
//  2. The user approves the request on GitHub
//  3. GitHub redirects back to the callback URL with a short-lived "code"
//  4. The server exchanges the code for an access token (server-to-server)
//  5. The server calls the GitHub API with that token for the user profile
//
// GitHub login is optional: the provider is only built when a client ID
// and secret are configured.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// callbackURL must match the "Authorization callback URL" of the OAuth app.
// Example: "http://localhost:8080/auth/github/callback"
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return newGitHubProvider(clientID, clientSecret, callbackURL, github.Endpoint, githubUserURL)
}

func newGitHubProvider(clientID, clientSecret, callbackURL string, endpoint oauth2.Endpoint, userURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		userURL: userURL,
	}
}

// AuthURL returns the GitHub authorization URL carrying state.
// The state must also be stored client-side (see Cookies.NewState) and
// compared on callback, which defeats login CSRF.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the GitHub user profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// The returned client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 || ghUser.Login == "" {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (id=%d, login=%q)", ghUser.ID, ghUser.Login)
	}

	return &ghUser, nil
}
