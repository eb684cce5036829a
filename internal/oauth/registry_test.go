package oauth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	id         string
	configured bool
}

func (f *fakeProvider) Identifier() string   { return f.id }
func (f *fakeProvider) IsConfigured() bool   { return f.configured }
func (f *fakeProvider) ValidateConfig() error {
	if !f.configured {
		return NewProviderError(f.id, "missing credentials", "", nil)
	}
	return nil
}
func (f *fakeProvider) AuthURL(ctx context.Context, state string) (string, error) {
	return "https://example.test/auth?state=" + state, nil
}
func (f *fakeProvider) UserData(ctx context.Context, code string) (*UserData, error) {
	return &UserData{Provider: f.id}, nil
}

func TestRegistry_CreateUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("nope", nil)
	assert.Error(t, err)
}

func TestRegistry_Known_Sorted(t *testing.T) {
	r := NewRegistry()
	r.Register("google", func(cfg map[string]any) (Provider, error) { return nil, nil })
	r.Register("facebook", func(cfg map[string]any) (Provider, error) { return nil, nil })
	assert.Equal(t, []string{"facebook", "google"}, r.Known())
}

func TestRegistry_Configured_SkipsBroken(t *testing.T) {
	r := NewRegistry()
	r.Register("good", func(cfg map[string]any) (Provider, error) {
		return &fakeProvider{id: "good", configured: true}, nil
	})
	r.Register("incomplete", func(cfg map[string]any) (Provider, error) {
		return &fakeProvider{id: "incomplete", configured: false}, nil
	})
	r.Register("broken", func(cfg map[string]any) (Provider, error) {
		return nil, errors.New("bad config")
	})

	got := r.Configured(map[string]map[string]any{
		"good":       {},
		"incomplete": {},
		"broken":     {},
		// "absent" ni aparece
	})

	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Identifier())
}

func TestProviderError_SafeMessage(t *testing.T) {
	e := NewProviderError("google", "token endpoint returned 500", "", errors.New("boom"))
	assert.Equal(t, "Authentication failed. Please try again.", e.SafeMessage())
	assert.Contains(t, e.Error(), "token endpoint returned 500")
	assert.NotContains(t, e.SafeMessage(), "500")

	e2 := NewProviderError("google", "hd mismatch", "Your account's domain is not allowed.", nil)
	assert.Equal(t, "Your account's domain is not allowed.", e2.SafeMessage())
}
