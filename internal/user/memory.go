package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgate/internal/oauth"
)

// MemManager implements Manager in memory. Para desarrollo y tests;
// no persiste nada.
type MemManager struct {
	mu         sync.RWMutex
	byEmail    map[string]*Account
	identities map[string]Identity // key: provider + "\x00" + provider_id
}

func NewMemManager() *MemManager {
	return &MemManager{
		byEmail:    make(map[string]*Account),
		identities: make(map[string]Identity),
	}
}

func (m *MemManager) CreateOrUpdate(ctx context.Context, data *oauth.UserData) (*Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	created := false

	acc, ok := m.byEmail[data.Email]
	if !ok {
		acc = &Account{
			ID:          uuid.New(),
			Email:       data.Email,
			DisplayName: displayName(data),
			CreatedAt:   now,
		}
		m.byEmail[data.Email] = acc
		created = true
	}
	acc.FirstName = data.FirstName
	acc.LastName = data.LastName
	acc.AvatarURL = data.AvatarURL
	acc.Locale = data.Locale
	acc.UpdatedAt = now

	m.identities[data.Provider+"\x00"+data.ProviderID] = Identity{
		AccountID:  acc.ID,
		Provider:   data.Provider,
		ProviderID: data.ProviderID,
		LinkedAt:   now,
	}

	cp := *acc
	return &cp, created, nil
}

func (m *MemManager) FindByEmail(ctx context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *MemManager) Identities(ctx context.Context, accountID uuid.UUID) ([]Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Identity
	for _, id := range m.identities {
		if id.AccountID == accountID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkedAt.After(out[j].LinkedAt) })
	return out, nil
}
