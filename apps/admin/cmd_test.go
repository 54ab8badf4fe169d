package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
	"github.com/shidqimaqshid/geoattend-app-sub000/storage/kv"
)

var usrRepo *kv.UserRepo

func setup(t *testing.T) *commandLine {
	t.Helper()

	store := kv.NewMemStore()
	usrRepo = kv.NewUserRepo(store)

	return &commandLine{
		conf:         &core.Config{},
		usrRepo:      usrRepo,
		settingsRepo: kv.NewSettingsRepo(store),
	}
}

func createUser(t *testing.T, uname, email, pwd string, roles []string) user.User {
	t.Helper()

	usr := user.User{
		ID:       uuid.New().String(),
		Username: uname,
		Email:    email,
		Roles:    roles,
		IsActive: true,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no email", args: []string{"adduser", "-username", "mwalimu"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "mwalimu", "-email", "mwalimu@test.sch.id"}, wantErr: errHelp},
		{name: "create teacher", args: []string{"adduser", "-username", "mwalimu", "-email", "mwalimu@test.sch.id"}, extra: extra{pwd: "LokiCat"}},
		{name: "promote to admin", args: []string{"adduser", "-username", "mwalimu", "-email", "mwalimu@test.sch.id", "-admin"}, extra: extra{pwd: "LokiCat"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				usr, err := usrRepo.GetUserByUsername(context.Background(), "mwalimu")
				if err != nil {
					t.Fatalf("GetUserByUsername() failed, %v", err)
				}
				if !usr.IsActive {
					t.Error("expected an active user")
				}
				if tt.name == "promote to admin" && !usr.IsAdmin() {
					t.Error("expected the admin role")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createUser(t, "awe", "awe@test.sch.id", "mdr", []string{user.RoleTeacher})

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_settings(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"settings"}, wantErr: errHelp},
		{name: "year but no semester", args: []string{"settings", "-year", "2025/2026"}, wantErr: errHelp},
		{name: "bad semester", args: []string{"settings", "-year", "2025/2026", "-semester", "lol"}, wantErrStr: `invalid semester "lol": must be Ganjil or Genap`},
		{name: "set inactive", args: []string{"settings", "-year", "2025/2026", "-semester", "Ganjil"}},
		{name: "set active", args: []string{"settings", "-year", "2025/2026", "-semester", "Genap", "-active"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				settings, err := cli.settingsRepo.GetAppSettings(context.Background())
				if err != nil {
					t.Fatalf("GetAppSettings() failed, %v", err)
				}
				if settings.SchoolYear != "2025/2026" {
					t.Errorf("SchoolYear = %s, want 2025/2026", settings.SchoolYear)
				}
				if tt.name == "set active" && !settings.SystemActive {
					t.Error("expected an active system")
				}
			} else if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if tt.wantErrStr != "" {
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			} else {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}
