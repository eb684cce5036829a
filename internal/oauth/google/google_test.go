package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/socialgate/internal/oauth"
)

func newTestProvider(t *testing.T, info map[string]any, tokenStatus int) (*Provider, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	raw, err := New(map[string]any{
		"client_id":     "cid",
		"client_secret": "secret",
		"redirect_url":  "https://app.test/auth/social/google/callback",
	})
	require.NoError(t, err)

	p := raw.(*Provider)
	p.conf.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/auth",
		TokenURL: srv.URL + "/token",
	}
	p.userInfoURL = srv.URL + "/userinfo"
	return p, srv
}

func TestAuthURL_IncludesStateAndScopes(t *testing.T) {
	raw, err := New(map[string]any{
		"client_id":     "cid",
		"client_secret": "secret",
		"redirect_url":  "https://app.test/cb",
	})
	require.NoError(t, err)

	u, err := raw.AuthURL(context.Background(), "state-xyz")
	require.NoError(t, err)
	assert.Contains(t, u, "state=state-xyz")
	assert.Contains(t, u, "client_id=cid")
	assert.Contains(t, u, "access_type=offline")
}

func TestAuthURL_HostedDomainParam(t *testing.T) {
	raw, err := New(map[string]any{
		"client_id":     "cid",
		"client_secret": "secret",
		"hosted_domain": "example.com",
	})
	require.NoError(t, err)

	u, err := raw.AuthURL(context.Background(), "s")
	require.NoError(t, err)
	assert.Contains(t, u, "hd=example.com")
}

func TestUserData_HappyPath(t *testing.T) {
	p, _ := newTestProvider(t, map[string]any{
		"id":             "g-1",
		"email":          "Jane.Doe@Example.com",
		"verified_email": true,
		"name":           "Jane Doe",
		"given_name":     "Jane",
		"family_name":    "Doe",
		"picture":        "https://img.test/jane.png",
		"locale":         "en",
	}, http.StatusOK)

	data, err := p.UserData(context.Background(), "code-1")
	require.NoError(t, err)

	assert.Equal(t, "jane.doe@example.com", data.Email)
	assert.Equal(t, "Jane", data.FirstName)
	assert.Equal(t, "Doe", data.LastName)
	assert.Equal(t, "Jane Doe", data.DisplayName)
	assert.Equal(t, "google", data.Provider)
	assert.Equal(t, "g-1", data.ProviderID)
	assert.Equal(t, "at-123", data.AccessToken)
}

func TestUserData_UnverifiedEmailRejected(t *testing.T) {
	p, _ := newTestProvider(t, map[string]any{
		"id":             "g-2",
		"email":          "nope@example.com",
		"verified_email": false,
	}, http.StatusOK)

	_, err := p.UserData(context.Background(), "code-1")
	var perr *oauth.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.SafeMessage(), "not verified")
}

func TestUserData_HostedDomainMismatch(t *testing.T) {
	p, _ := newTestProvider(t, map[string]any{
		"id":             "g-3",
		"email":          "eve@other.com",
		"verified_email": true,
		"hd":             "other.com",
	}, http.StatusOK)
	p.hostedDomain = "example.com"

	_, err := p.UserData(context.Background(), "code-1")
	var perr *oauth.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Technical, "other.com")
}

func TestUserData_TokenEndpointFailure(t *testing.T) {
	p, _ := newTestProvider(t, nil, http.StatusUnauthorized)

	_, err := p.UserData(context.Background(), "bad-code")
	var perr *oauth.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Authentication failed. Please try again.", perr.SafeMessage())
}

func TestIsConfigured(t *testing.T) {
	raw, err := New(map[string]any{"client_id": "cid"})
	require.NoError(t, err)
	assert.False(t, raw.IsConfigured())
	assert.Error(t, raw.ValidateConfig())

	raw, err = New(map[string]any{"client_id": "cid", "client_secret": "s"})
	require.NoError(t, err)
	assert.True(t, raw.IsConfigured())
	assert.NoError(t, raw.ValidateConfig())
}
