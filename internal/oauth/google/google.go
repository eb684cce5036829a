// Package google implements the Google social login provider on top
// of the standard authorization-code flow plus the userinfo endpoint.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/dropDatabas3/socialgate/internal/oauth"
)

// ID is the provider identifier.
const ID = "google"

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var defaultScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// Provider implements oauth.Provider for Google.
type Provider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	hostedDomain string

	conf        *oauth2.Config
	userInfoURL string
	http        *http.Client
}

// New builds the provider from its settings block
// (providers.google). Missing credentials are not an error here;
// IsConfigured reports them.
func New(cfg map[string]any) (oauth.Provider, error) {
	p := &Provider{
		clientID:     str(cfg, "client_id"),
		clientSecret: str(cfg, "client_secret"),
		redirectURL:  str(cfg, "redirect_url"),
		hostedDomain: str(cfg, "hosted_domain"),
		userInfoURL:  defaultUserInfoURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
	p.conf = &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  p.redirectURL,
		Scopes:       defaultScopes,
		Endpoint:     googleoauth.Endpoint,
	}
	return p, nil
}

func (p *Provider) Identifier() string { return ID }

func (p *Provider) IsConfigured() bool {
	return p.clientID != "" && p.clientSecret != ""
}

func (p *Provider) ValidateConfig() error {
	if p.clientID == "" {
		return oauth.NewProviderError(ID, "client_id is not set", "", nil)
	}
	if p.clientSecret == "" {
		return oauth.NewProviderError(ID, "client_secret is not set", "", nil)
	}
	return nil
}

func (p *Provider) AuthURL(ctx context.Context, state string) (string, error) {
	if err := p.ValidateConfig(); err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	}
	if p.hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", p.hostedDomain))
	}
	return p.conf.AuthCodeURL(state, opts...), nil
}

// userInfo is the shape of the v2 userinfo response.
type userInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
	Hd            string `json:"hd"`
}

func (p *Provider) UserData(ctx context.Context, code string) (*oauth.UserData, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	// el http.Client con timeout también gobierna el exchange
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, oauth.NewProviderError(ID, "code exchange failed", "", err)
	}
	if tok.AccessToken == "" {
		return nil, oauth.NewProviderError(ID, "token endpoint returned no access_token", "", nil)
	}

	info, err := p.fetchUserInfo(ctx, tok)
	if err != nil {
		return nil, err
	}

	if info.Email == "" {
		return nil, oauth.NewProviderError(ID, "userinfo has no email", "", nil)
	}
	if !info.VerifiedEmail {
		return nil, oauth.NewProviderError(ID,
			fmt.Sprintf("email %s is not verified", info.Email),
			"Your Google account's email address is not verified.", nil)
	}
	if p.hostedDomain != "" && !strings.EqualFold(info.Hd, p.hostedDomain) {
		return nil, oauth.NewProviderError(ID,
			fmt.Sprintf("hosted domain %q does not match required %q", info.Hd, p.hostedDomain),
			"Your Google account's domain is not allowed to sign in here.", nil)
	}

	return &oauth.UserData{
		Email:        strings.ToLower(info.Email),
		FirstName:    info.GivenName,
		LastName:     info.FamilyName,
		DisplayName:  info.Name,
		Provider:     ID,
		ProviderID:   info.ID,
		AvatarURL:    info.Picture,
		Locale:       info.Locale,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

func (p *Provider) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, oauth.NewProviderError(ID, "building userinfo request", "", err)
	}
	tok.SetAuthHeader(req)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, oauth.NewProviderError(ID, "userinfo request failed", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, oauth.NewProviderError(ID,
			fmt.Sprintf("userinfo http %d: %s", resp.StatusCode, string(body)), "", nil)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, oauth.NewProviderError(ID, "decoding userinfo response", "", err)
	}
	return &info, nil
}

func str(m map[string]any, k string) string {
	if s, ok := m[k].(string); ok {
		return s
	}
	return ""
}
