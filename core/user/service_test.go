package user_test

import (
	"context"
	"testing"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	"github.com/shulehub/shule/storage/database"
	testutil "github.com/shulehub/shule/tests"
)

func setup(t *testing.T) (user.Service, user.Repository) {
	t.Helper()
	db := testutil.OpenDB(t)
	repo := database.NewUserRepository(db)
	svc := user.NewService(repo, emailsvc.NewConsoleServiceMock(testutil.NewConfig()))
	return svc, repo
}

func Test_service_RegisterAndAuthenticate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.Register(ctx, user.RegisterUser{
		Name:            "Jane Doe",
		Email:           "jane@test.cd",
		Password:        "pwd",
		PasswordConfirm: "pwd",
	})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if usr.Role != user.RoleStudent {
		t.Errorf("Register() role = %v; want %v", usr.Role, user.RoleStudent)
	}

	authed, err := svc.Authenticate(ctx, "jane@test.cd", "pwd")
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	if authed.ID != usr.ID {
		t.Errorf("Authenticate() ID = %v; want %v", authed.ID, usr.ID)
	}
	if authed.LastLogin.IsZero() {
		t.Error("Authenticate() did not set LastLogin")
	}

	// wrong password and unknown email are indistinguishable
	if _, err = svc.Authenticate(ctx, "jane@test.cd", "nope"); err != user.ErrNotFound {
		t.Errorf("Authenticate(wrong pwd) err = %v; want %v", err, user.ErrNotFound)
	}
	if _, err = svc.Authenticate(ctx, "nobody@test.cd", "pwd"); err != user.ErrNotFound {
		t.Errorf("Authenticate(unknown email) err = %v; want %v", err, user.ErrNotFound)
	}
}

func Test_RegisterUser_Validate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	if _, err := svc.Register(ctx, user.RegisterUser{
		Name: "Taken", Email: "taken@test.cd", Password: "pwd", PasswordConfirm: "pwd",
	}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	tests := []struct {
		name    string
		data    user.RegisterUser
		wantErr bool
	}{
		{
			name:    "blank password fails",
			data:    user.RegisterUser{Name: "A", Email: "a@test.cd", Password: "", PasswordConfirm: ""},
			wantErr: true,
		},
		{
			name:    "password mismatch fails",
			data:    user.RegisterUser{Name: "A", Email: "a@test.cd", Password: "pwd", PasswordConfirm: "dwp"},
			wantErr: true,
		},
		{
			name:    "duplicate email fails",
			data:    user.RegisterUser{Name: "A", Email: "taken@test.cd", Password: "pwd", PasswordConfirm: "pwd"},
			wantErr: true,
		},
		{
			// the password policy does not apply to self-registration
			name:    "weak password passes",
			data:    user.RegisterUser{Name: "A", Email: "a@test.cd", Password: "1", PasswordConfirm: "1"},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(ctx, validate, svc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_NewUser_Validate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	newUser := func(pwd string, role user.Role) user.NewUser {
		return user.NewUser{
			Name:            "John Doe",
			Email:           "john@test.cd",
			Password:        pwd,
			PasswordConfirm: pwd,
			Role:            role,
		}
	}

	tests := []struct {
		name    string
		data    user.NewUser
		wantErr bool
	}{
		{name: "valid", data: newUser("LePassw0rd!", user.RoleTeacher)},
		{name: "short password fails", data: newUser("Sh0rt!", user.RoleTeacher), wantErr: true},
		{name: "whitespace fails", data: newUser("Le Passw0rd!", user.RoleTeacher), wantErr: true},
		{name: "all numeric fails", data: newUser("1234567890", user.RoleTeacher), wantErr: true},
		{name: "similar to email fails", data: newUser("john@test.cd", user.RoleTeacher), wantErr: true},
		{name: "invalid role fails", data: newUser("LePassw0rd!", "JANITOR"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(ctx, validate, svc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_service_SetRole(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	student := testutil.CreateUser(t, repo, "Hero", "hero@test.cd", "", user.RoleStudent)
	admin := testutil.CreateUser(t, repo, "Admin", "admin@test.cd", "", user.RoleAdmin)

	promoted, err := svc.SetRole(ctx, student.ID, user.RoleTeacher)
	if err != nil {
		t.Fatalf("SetRole() failed: %v", err)
	}
	if promoted.Role != user.RoleTeacher {
		t.Errorf("SetRole() role = %v; want %v", promoted.Role, user.RoleTeacher)
	}

	// admin accounts are immutable
	same, err := svc.SetRole(ctx, admin.ID, user.RoleStudent)
	if err != nil {
		t.Fatalf("SetRole() failed: %v", err)
	}
	if same.Role != user.RoleAdmin {
		t.Errorf("SetRole() role = %v; want %v", same.Role, user.RoleAdmin)
	}
}

func Test_service_SeedAdmin(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	usr, err := svc.SeedAdmin(ctx, "root@test.cd", "LePassw0rd!")
	if err != nil {
		t.Fatalf("SeedAdmin() failed: %v", err)
	}
	if !usr.IsAdmin() {
		t.Errorf("SeedAdmin() role = %v; want %v", usr.Role, user.RoleAdmin)
	}

	// a second seed is a no-op
	if _, err = svc.SeedAdmin(ctx, "other@test.cd", "LePassw0rd!"); err != nil {
		t.Fatalf("SeedAdmin() failed: %v", err)
	}
	if _, err = repo.GetUserByEmail(ctx, "other@test.cd"); err != user.ErrNotFound {
		t.Errorf("GetUserByEmail() err = %v; want %v", err, user.ErrNotFound)
	}
}
