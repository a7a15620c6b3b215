package memory

import (
	"context"
	"sort"

	"github.com/exiledproject/launcher-cms/internal/apitoken"
	"github.com/exiledproject/launcher-cms/internal/permission"
)

type tokenRepo struct {
	s *Store
}

func (r *tokenRepo) CreateWithPermissions(_ context.Context, t *apitoken.APIToken, codes []permission.Code) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.s.id("api_tokens")
	}
	frozen := make([]permission.Code, len(codes))
	copy(frozen, codes)
	r.s.tokenPerms[t.ID] = frozen

	t.Permissions = tokenPermissionLinks(t.ID, codes)
	stored := *t
	stored.Permissions = nil
	r.s.tokens[t.ID] = stored
	return nil
}

func (r *tokenRepo) ListByUser(_ context.Context, userID int64) ([]apitoken.APIToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var tokens []apitoken.APIToken
	for _, t := range r.s.tokens {
		if t.UserID != userID {
			continue
		}
		t.Permissions = tokenPermissionLinks(t.ID, r.s.tokenPerms[t.ID])
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID > tokens[j].ID })
	return tokens, nil
}

func (r *tokenRepo) GetByID(_ context.Context, id int64) (*apitoken.APIToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[id]
	if !ok {
		return nil, nil
	}
	t.Permissions = tokenPermissionLinks(t.ID, r.s.tokenPerms[t.ID])
	return &t, nil
}

func (r *tokenRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, id)
	delete(r.s.tokenPerms, id)
	return nil
}

func tokenPermissionLinks(tokenID int64, codes []permission.Code) []apitoken.TokenPermission {
	links := make([]apitoken.TokenPermission, len(codes))
	for i, code := range codes {
		links[i] = apitoken.TokenPermission{TokenID: tokenID, Code: code}
	}
	return links
}
