// Package memory is a process-local store used when no database is
// configured, mainly for demos and tests. It implements every repository
// interface the services consume. All methods copy on the way out so
// callers never alias internal state.
package memory

import (
	"sync"
	"time"

	"github.com/exiledproject/launcher-cms/internal/apitoken"
	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/news"
	"github.com/exiledproject/launcher-cms/internal/pageaccess"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/ticket"
	"github.com/exiledproject/launcher-cms/internal/user"
)

type Store struct {
	mu sync.RWMutex

	users       map[int64]user.User
	permissions map[int64]permission.Permission
	roles       map[int64]permission.Role

	rolePermissions map[permission.RolePermission]struct{}
	userRoles       map[permission.UserRole]struct{}
	userPermissions map[permission.UserPermission]struct{}

	tokens     map[int64]apitoken.APIToken
	tokenPerms map[int64][]permission.Code

	auditLogs []audit.Log

	newsItems map[int64]news.News
	tickets   map[int64]ticket.Ticket
	pages     map[int64]pageaccess.PageAccess

	nextID map[string]int64
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:           make(map[int64]user.User),
		permissions:     make(map[int64]permission.Permission),
		roles:           make(map[int64]permission.Role),
		rolePermissions: make(map[permission.RolePermission]struct{}),
		userRoles:       make(map[permission.UserRole]struct{}),
		userPermissions: make(map[permission.UserPermission]struct{}),
		tokens:          make(map[int64]apitoken.APIToken),
		tokenPerms:      make(map[int64][]permission.Code),
		newsItems:       make(map[int64]news.News),
		tickets:         make(map[int64]ticket.Ticket),
		pages:           make(map[int64]pageaccess.PageAccess),
		nextID:          make(map[string]int64),
		now:             time.Now,
	}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// The entity repositories share method names (GetByID, Create, ...), so the
// store exposes them as typed views over the same state. The permission
// store and audit repository have unique method sets and live on *Store
// directly.

func (s *Store) Users() user.Repository          { return &userRepo{s} }
func (s *Store) Tokens() apitoken.Repository     { return &tokenRepo{s} }
func (s *Store) News() news.Repository           { return &newsRepo{s} }
func (s *Store) Tickets() ticket.Repository      { return &ticketRepo{s} }
func (s *Store) Pages() pageaccess.Repository    { return &pageRepo{s} }
func (s *Store) Permissions() permission.Store   { return s }
func (s *Store) AuditLogs() audit.Repository     { return s }

// id hands out sequential ids per table, caller must hold mu.
func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}
