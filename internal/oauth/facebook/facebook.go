// Package facebook implements the Facebook social login provider
// against the Graph API.
package facebook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	fboauth "golang.org/x/oauth2/facebook"

	"github.com/dropDatabas3/socialgate/internal/oauth"
)

// ID is the provider identifier.
const ID = "facebook"

const defaultGraphURL = "https://graph.facebook.com/v18.0/me"

var defaultScopes = []string{"email", "public_profile"}

// Provider implements oauth.Provider for Facebook.
type Provider struct {
	appID       string
	appSecret   string
	redirectURL string

	conf     *oauth2.Config
	graphURL string
	http     *http.Client
}

// New builds the provider from its settings block
// (providers.facebook).
func New(cfg map[string]any) (oauth.Provider, error) {
	p := &Provider{
		appID:       str(cfg, "app_id"),
		appSecret:   str(cfg, "app_secret"),
		redirectURL: str(cfg, "redirect_url"),
		graphURL:    defaultGraphURL,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
	p.conf = &oauth2.Config{
		ClientID:     p.appID,
		ClientSecret: p.appSecret,
		RedirectURL:  p.redirectURL,
		Scopes:       defaultScopes,
		Endpoint:     fboauth.Endpoint,
	}
	return p, nil
}

func (p *Provider) Identifier() string { return ID }

func (p *Provider) IsConfigured() bool {
	return p.appID != "" && p.appSecret != ""
}

func (p *Provider) ValidateConfig() error {
	if p.appID == "" {
		return oauth.NewProviderError(ID, "app_id is not set", "", nil)
	}
	if p.appSecret == "" {
		return oauth.NewProviderError(ID, "app_secret is not set", "", nil)
	}
	return nil
}

func (p *Provider) AuthURL(ctx context.Context, state string) (string, error) {
	if err := p.ValidateConfig(); err != nil {
		return "", err
	}
	return p.conf.AuthCodeURL(state), nil
}

// profile is the Graph /me response with the fields we request.
type profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (p *Provider) UserData(ctx context.Context, code string) (*oauth.UserData, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, oauth.NewProviderError(ID, "code exchange failed", "", err)
	}
	if tok.AccessToken == "" {
		return nil, oauth.NewProviderError(ID, "token endpoint returned no access_token", "", nil)
	}

	prof, err := p.fetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	// Facebook omite email cuando la cuenta se registró por teléfono
	// o el usuario revocó el permiso
	if prof.Email == "" {
		return nil, oauth.NewProviderError(ID,
			fmt.Sprintf("profile %s has no email", prof.ID),
			"Your Facebook account has no email address we can use. Please sign in another way.", nil)
	}

	return &oauth.UserData{
		Email:        strings.ToLower(prof.Email),
		FirstName:    prof.FirstName,
		LastName:     prof.LastName,
		DisplayName:  prof.Name,
		Provider:     ID,
		ProviderID:   prof.ID,
		AvatarURL:    prof.Picture.Data.URL,
		AccessToken:  tok.AccessToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

func (p *Provider) fetchProfile(ctx context.Context, accessToken string) (*profile, error) {
	u, err := url.Parse(p.graphURL)
	if err != nil {
		return nil, oauth.NewProviderError(ID, "bad graph url", "", err)
	}
	q := u.Query()
	q.Set("fields", "id,email,first_name,last_name,name,picture.type(large)")
	q.Set("access_token", accessToken)
	// appsecret_proof ata el token al app secret; Graph lo exige
	// cuando la app tiene "Require App Secret" activo
	q.Set("appsecret_proof", p.appSecretProof(accessToken))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, oauth.NewProviderError(ID, "building graph request", "", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, oauth.NewProviderError(ID, "graph request failed", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, oauth.NewProviderError(ID,
			fmt.Sprintf("graph http %d: %s", resp.StatusCode, string(body)), "", nil)
	}

	var prof profile
	if err := json.NewDecoder(resp.Body).Decode(&prof); err != nil {
		return nil, oauth.NewProviderError(ID, "decoding graph response", "", err)
	}
	return &prof, nil
}

func (p *Provider) appSecretProof(accessToken string) string {
	mac := hmac.New(sha256.New, []byte(p.appSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}

func str(m map[string]any, k string) string {
	if s, ok := m[k].(string); ok {
		return s
	}
	return ""
}
