// Package rbactest provides an in-memory rbac.Store and request helpers for tests.
package rbactest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

// Store is a concurrency-safe in-memory rbac.Store.
type Store struct {
	mu          sync.Mutex
	roles       map[uuid.UUID]rbac.Role
	permissions map[uuid.UUID]rbac.Permission
	grants      map[uuid.UUID]map[uuid.UUID]struct{}
	users       map[uuid.UUID]storedUser

	// Err, when set, is returned by every method.
	Err error
}

type storedUser struct {
	id        uuid.UUID
	email     string
	roleID    uuid.UUID
	active    bool
	createdAt time.Time
}

var _ rbac.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		roles:       map[uuid.UUID]rbac.Role{},
		permissions: map[uuid.UUID]rbac.Permission{},
		grants:      map[uuid.UUID]map[uuid.UUID]struct{}{},
		users:       map[uuid.UUID]storedUser{},
	}
}

// NewSeededStore returns a store loaded with rbac.DefaultCatalog.
func NewSeededStore() *Store {
	s := NewStore()
	if _, err := rbac.Seed(context.Background(), s, rbac.DefaultCatalog()); err != nil {
		panic(err)
	}
	return s
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (rbac.User, error) {
	s.mu.Lock()
	if s.Err != nil {
		s.mu.Unlock()
		return rbac.User{}, s.Err
	}
	u, ok := s.users[id]
	var role rbac.Role
	if ok {
		role, ok = s.roles[u.roleID]
	}
	s.mu.Unlock()
	if !ok {
		return rbac.User{}, rbac.ErrUserNotFound
	}
	return rbac.User{ID: u.id, Email: u.email, RoleID: u.roleID, RoleName: role.Name, IsActive: u.active, CreatedAt: u.createdAt, UpdatedAt: u.createdAt}, nil
}

func (s *Store) InsertUser(_ context.Context, user rbac.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if _, ok := s.users[user.ID]; ok {
		return false, nil
	}
	for _, u := range s.users {
		if u.email == user.Email {
			return false, nil
		}
	}
	s.users[user.ID] = storedUser{id: user.ID, email: user.Email, roleID: user.RoleID, active: true, createdAt: time.Now().UTC()}
	return true, nil
}

func (s *Store) SetUserRole(_ context.Context, userID, roleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[userID]
	if !ok {
		return rbac.ErrUserNotFound
	}
	if _, ok := s.roles[roleID]; !ok {
		return rbac.ErrRoleNotFound
	}
	u.roleID = roleID
	s.users[userID] = u
	return nil
}

// SetUserActive toggles a user's active flag.
func (s *Store) SetUserActive(userID uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.active = active
	s.users[userID] = u
}

// UserCount returns the number of stored users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) GetRoleByName(_ context.Context, name string) (rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return rbac.Role{}, s.Err
	}
	for _, r := range s.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return rbac.Role{}, rbac.ErrRoleNotFound
}

func (s *Store) ListRoles(_ context.Context) ([]rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]rbac.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateRole(_ context.Context, name, description string) (rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return rbac.Role{}, s.Err
	}
	for _, r := range s.roles {
		if r.Name == name {
			return rbac.Role{}, rbac.ErrDuplicateName
		}
	}
	role := rbac.Role{ID: uuid.New(), Name: name, Description: description, CreatedAt: time.Now().UTC()}
	s.roles[role.ID] = role
	return role, nil
}

func (s *Store) UpsertRole(_ context.Context, name, description string) (rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return rbac.Role{}, s.Err
	}
	for id, r := range s.roles {
		if r.Name == name {
			r.Description = description
			s.roles[id] = r
			return r, nil
		}
	}
	role := rbac.Role{ID: uuid.New(), Name: name, Description: description, CreatedAt: time.Now().UTC()}
	s.roles[role.ID] = role
	return role, nil
}

func (s *Store) ListPermissions(_ context.Context) ([]rbac.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]rbac.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreatePermission(_ context.Context, name, description string) (rbac.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return rbac.Permission{}, s.Err
	}
	for _, p := range s.permissions {
		if p.Name == name {
			return rbac.Permission{}, rbac.ErrDuplicateName
		}
	}
	perm := rbac.Permission{ID: uuid.New(), Name: name, Description: description, CreatedAt: time.Now().UTC()}
	s.permissions[perm.ID] = perm
	return perm, nil
}

func (s *Store) UpsertPermission(_ context.Context, name, description string) (rbac.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return rbac.Permission{}, s.Err
	}
	for id, p := range s.permissions {
		if p.Name == name {
			p.Description = description
			s.permissions[id] = p
			return p, nil
		}
	}
	perm := rbac.Permission{ID: uuid.New(), Name: name, Description: description, CreatedAt: time.Now().UTC()}
	s.permissions[perm.ID] = perm
	return perm, nil
}

func (s *Store) GrantPermission(_ context.Context, roleID, permissionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.grants[roleID] == nil {
		s.grants[roleID] = map[uuid.UUID]struct{}{}
	}
	s.grants[roleID][permissionID] = struct{}{}
	return nil
}

// RevokePermission removes a grant by names.
func (s *Store) RevokePermission(roleName, permName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for rid, r := range s.roles {
		if r.Name != roleName {
			continue
		}
		for pid, p := range s.permissions {
			if p.Name == permName {
				delete(s.grants[rid], pid)
			}
		}
	}
}

func (s *Store) RolePermissionNames(_ context.Context, roleID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	names := make([]string, 0, len(s.grants[roleID]))
	for pid := range s.grants[roleID] {
		names = append(names, s.permissions[pid].Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) ListRolePermissions(_ context.Context) ([]rbac.RolePermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]rbac.RolePermission, 0)
	for rid, perms := range s.grants {
		for pid := range perms {
			out = append(out, rbac.RolePermission{RoleID: rid, Role: s.roles[rid].Name, PermissionID: pid, Permission: s.permissions[pid].Name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Permission < out[j].Permission
	})
	return out, nil
}

func (s *Store) ReplaceRolePermissions(_ context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.roles[roleID]; !ok {
		return rbac.ErrRoleNotFound
	}
	next := make(map[uuid.UUID]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, ok := s.permissions[id]; !ok {
			return rbac.ErrPermissionNotFound
		}
		next[id] = struct{}{}
	}
	s.grants[roleID] = next
	return nil
}

// RoleID returns the id of the named role or panics.
func (s *Store) RoleID(name string) uuid.UUID {
	role, err := s.GetRoleByName(context.Background(), name)
	if err != nil {
		panic("rbactest: unknown role " + name)
	}
	return role.ID
}

// PermissionID returns the id of the named permission or panics.
func (s *Store) PermissionID(name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.permissions {
		if p.Name == name {
			return id
		}
	}
	panic("rbactest: unknown permission " + name)
}

// AddUser stores a user holding the named role and returns its id.
func (s *Store) AddUser(email, role string) uuid.UUID {
	roleID := s.RoleID(role)
	id := uuid.New()
	s.mu.Lock()
	s.users[id] = storedUser{id: id, email: strings.ToLower(email), roleID: roleID, active: true, createdAt: time.Now().UTC()}
	s.mu.Unlock()
	return id
}
