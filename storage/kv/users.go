package kv

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
)

// UserRepo persists identity records under teachers/{id}. Admins live in the
// same collection; roles tell them apart.
type UserRepo struct {
	store Store
}

var _ user.Repository = (*UserRepo)(nil)

func NewUserRepo(store Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	users, err := r.QueryAllUsers(ctx)
	if err != nil {
		return err
	}

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}

	username = strings.ToLower(username)
	email = strings.ToLower(email)
	for _, usr := range users {
		if _, skip := excluded[usr.ID]; skip {
			continue
		}
		if username != "" && strings.ToLower(usr.Username) == username {
			return user.ErrUsernameExists
		}
		if email != "" && strings.ToLower(usr.Email) == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (r *UserRepo) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := r.put(ctx, usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (r *UserRepo) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	snap, err := r.store.List(ctx, TeachersPrefix)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(snap))
	for path, value := range snap {
		usr, err := decodeUser(value)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding record %s", path)
		}
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (user.User, error) {
	value, err := r.store.Get(ctx, Join(TeachersPrefix, id))
	if err == ErrKeyNotFound {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	usr, err := decodeUser(value)
	if err != nil {
		return user.User{}, errors.Wrapf(err, "decoding user %s", id)
	}
	return usr, nil
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return r.find(ctx, func(usr user.User) bool {
		return strings.EqualFold(usr.Username, username)
	})
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return r.find(ctx, func(usr user.User) bool {
		return strings.EqualFold(usr.Email, email)
	})
}

func (r *UserRepo) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return r.find(ctx, func(usr user.User) bool {
		return strings.EqualFold(usr.Username, username) || strings.EqualFold(usr.Email, username)
	})
}

func (r *UserRepo) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	users, err := r.QueryAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(filter.Search)
	matches := make([]user.User, 0, len(users))
	for _, usr := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(usr.Name), search) &&
			!strings.Contains(strings.ToLower(usr.Username), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		if len(filter.Roles) > 0 && !hasAnyRole(usr, filter.Roles) {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		matches = append(matches, usr)
	}
	return matches, nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	orig, err := r.GetUserByID(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
	}

	// merge: zero-value fields keep the stored value
	if usr.Name == "" {
		usr.Name = orig.Name
	}
	if usr.Username == "" {
		usr.Username = orig.Username
	}
	if usr.Email == "" {
		usr.Email = orig.Email
	}
	if usr.PhotoURL == "" {
		usr.PhotoURL = orig.PhotoURL
	}
	if usr.Roles == nil {
		usr.Roles = orig.Roles
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = orig.CreatedAt
	}
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = orig.UpdatedAt
	}
	if usr.LastLogin.IsZero() {
		usr.LastLogin = orig.LastLogin
	}
	if isActive != nil {
		usr.IsActive = *isActive
	} else {
		usr.IsActive = orig.IsActive
	}

	if err = r.put(ctx, usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (r *UserRepo) DeleteUsersByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := r.store.Delete(ctx, Join(TeachersPrefix, id)); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) put(ctx context.Context, usr user.User) error {
	value, err := json.Marshal(withPasswordHash{User: usr, PasswordHash: usr.PasswordHash})
	if err != nil {
		return errors.Wrapf(err, "encoding user %s", usr.ID)
	}
	return r.store.Put(ctx, Join(TeachersPrefix, usr.ID), value)
}

func (r *UserRepo) find(ctx context.Context, match func(user.User) bool) (user.User, error) {
	users, err := r.QueryAllUsers(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range users {
		if match(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func hasAnyRole(usr user.User, roles []string) bool {
	for _, role := range roles {
		if usr.RoleStartsWith(role) {
			return true
		}
	}
	return false
}

// withPasswordHash re-exposes the hash the API marshaller hides, so stored
// records round-trip credentials.
type withPasswordHash struct {
	user.User
	PasswordHash []byte `json:"password_hash"`
}

func decodeUser(value []byte) (user.User, error) {
	var rec withPasswordHash
	if err := json.Unmarshal(value, &rec); err != nil {
		return user.User{}, err
	}
	usr := rec.User
	usr.PasswordHash = rec.PasswordHash
	return usr, nil
}
