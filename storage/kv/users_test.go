package kv

import (
	"context"
	"testing"
	"time"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
)

func seedUser(t *testing.T, repo *UserRepo, id, uname, email string, roles ...string) user.User {
	t.Helper()
	usr := user.User{
		ID:        id,
		Name:      "User " + id,
		Username:  uname,
		Email:     email,
		IsActive:  true,
		Roles:     roles,
		CreatedAt: time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := usr.SetPassword("Secret123"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if _, err := repo.CreateUser(context.Background(), usr); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", id, err)
	}
	return usr
}

func TestUserRepoPasswordHashRoundTrip(t *testing.T) {
	repo := NewUserRepo(NewMemStore())
	seedUser(t, repo, "guru-1", "pakbudi", "budi@school.id", user.RoleTeacher)

	stored, err := repo.GetUserByID(context.Background(), "guru-1")
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if err = stored.CheckPassword("Secret123"); err != nil {
		t.Errorf("CheckPassword() after round trip failed: %v", err)
	}
}

func TestUserRepoUniqueness(t *testing.T) {
	repo := NewUserRepo(NewMemStore())
	ctx := context.Background()
	usr := seedUser(t, repo, "guru-1", "pakbudi", "budi@school.id", user.RoleTeacher)

	if err := repo.CheckUsernameUniqueness(ctx, "PAKBUDI", "other@school.id"); err != user.ErrUsernameExists {
		t.Errorf("duplicate username err = %v, want ErrUsernameExists", err)
	}
	if err := repo.CheckUsernameUniqueness(ctx, "other", "BUDI@school.id"); err != user.ErrEmailExists {
		t.Errorf("duplicate email err = %v, want ErrEmailExists", err)
	}
	if err := repo.CheckUsernameUniqueness(ctx, "pakbudi", "budi@school.id", usr); err != nil {
		t.Errorf("self-excluded check err = %v, want nil", err)
	}
	if err := repo.CheckUsernameUniqueness(ctx, "busari", "sari@school.id"); err != nil {
		t.Errorf("fresh credentials err = %v, want nil", err)
	}
}

func TestUserRepoLookupsAndFilter(t *testing.T) {
	repo := NewUserRepo(NewMemStore())
	ctx := context.Background()
	seedUser(t, repo, "guru-1", "pakbudi", "budi@school.id", user.RoleTeacher)
	seedUser(t, repo, "admin-1", "kepsek", "kepsek@school.id", user.RoleAdmin)

	if usr, err := repo.GetUserByUsername(ctx, "pakbudi"); err != nil || usr.ID != "guru-1" {
		t.Errorf("GetUserByUsername() = (%v, %v)", usr.ID, err)
	}
	if usr, err := repo.GetUserByUsernameOrEmail(ctx, "kepsek@school.id"); err != nil || usr.ID != "admin-1" {
		t.Errorf("GetUserByUsernameOrEmail() = (%v, %v)", usr.ID, err)
	}
	if _, err := repo.GetUserByEmail(ctx, "nobody@school.id"); err != user.ErrNotFound {
		t.Errorf("GetUserByEmail(missing) err = %v, want ErrNotFound", err)
	}

	teachers, err := repo.FilterUsers(ctx, user.QueryFilter{Roles: []string{user.RoleTeacher}})
	if err != nil {
		t.Fatalf("FilterUsers() failed: %v", err)
	}
	if len(teachers) != 1 || teachers[0].ID != "guru-1" {
		t.Errorf("FilterUsers(teacher) = %v", teachers)
	}

	bySearch, err := repo.FilterUsers(ctx, user.QueryFilter{Search: "BUDI"})
	if err != nil {
		t.Fatalf("FilterUsers() failed: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].ID != "guru-1" {
		t.Errorf("FilterUsers(search) = %v", bySearch)
	}
}

func TestUserRepoUpdateMergesStoredFields(t *testing.T) {
	repo := NewUserRepo(NewMemStore())
	ctx := context.Background()
	orig := seedUser(t, repo, "guru-1", "pakbudi", "budi@school.id", user.RoleTeacher)

	inactive := false
	updated, err := repo.UpdateUser(ctx, user.User{ID: "guru-1", Name: "Budi Santoso"}, &inactive)
	if err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	if updated.Name != "Budi Santoso" {
		t.Errorf("Name = %q", updated.Name)
	}
	if updated.Username != orig.Username || updated.Email != orig.Email {
		t.Errorf("untouched fields changed: %q %q", updated.Username, updated.Email)
	}
	if updated.IsActive {
		t.Error("IsActive not applied")
	}
	if err = updated.CheckPassword("Secret123"); err != nil {
		t.Errorf("password hash lost on update: %v", err)
	}
}
