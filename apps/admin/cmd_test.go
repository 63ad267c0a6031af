package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	"github.com/shulehub/shule/storage/database"
	testutil "github.com/shulehub/shule/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.OpenDB(t)
	usrRepo = database.NewUserRepository(db)

	// start CLI
	return &commandLine{
		db:     db,
		usrSvc: user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(testutil.NewConfig())),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe@test.cd", "OldPassw0rd!", user.RoleStudent)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, pwd: "NewPassw0rd!", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, pwd: "NewPassw0rd!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
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

func Test_commandLine_resetPassword_policy(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "User", "awe@test.cd", "OldPassw0rd!", user.RoleStudent)

	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte("1234567890"), nil
	}
	err := cli.run([]string{"admin", "resetpassword", "-email", usr.Email})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("cli.run() error = %v; want validation error", err)
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"addadmin", "-email", "root@test.cd"}, wantErr: errHelp},
		{name: "add", args: []string{"addadmin", "-email", "root@test.cd"}, pwd: "LePassw0rd!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUserByEmail(context.Background(), "root@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if !usr.IsAdmin() {
		t.Errorf("role = %v; want %v", usr.Role, user.RoleAdmin)
	}

	// duplicate email rejected
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("LePassw0rd!"), nil }
	if err := cli.run([]string{"admin", "addadmin", "-email", "root@test.cd"}); err == nil {
		t.Error("cli.run() expected duplicate email error")
	}
}
