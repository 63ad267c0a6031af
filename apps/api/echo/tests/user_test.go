package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shulehub/shule/core/user"
	testutil "github.com/shulehub/shule/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "pwd", user.RoleStudent)

	tests := []httpTest{
		{
			name: "valid credentials", body: marchallObj(t, map[string]string{"email": usr.Email, "password": "pwd"}),
		},
		{
			name: "wrong password", body: marchallObj(t, map[string]string{"email": usr.Email, "password": "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown email", body: marchallObj(t, map[string]string{"email": "ghost@test.cd", "password": "pwd"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "email required", body: marchallObj(t, map[string]string{"password": "pwd"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == 0 {
				if rec.Code != http.StatusOK {
					t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
				}
				var res struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Token == "" {
					t.Errorf("login returned no token; body = %v", rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, usrRepo, "Taken", "taken@test.cd", "", user.RoleStudent)

	body := func(name, email, pwd, confirm string) []byte {
		return marchallObj(t, map[string]string{
			"name": name, "email": email, "password": pwd, "password_confirm": confirm,
		})
	}

	tests := []httpTest{
		{
			name: "registration succeeds", method: http.MethodPost, path: "/v1/users/register",
			body: body("Jane", "jane@test.cd", "pwd", "pwd"), wantCode: http.StatusCreated,
		},
		{
			name: "blank password fails", method: http.MethodPost, path: "/v1/users/register",
			body: body("Jane", "jane2@test.cd", "", ""), wantCode: http.StatusBadRequest,
		},
		{
			name: "password mismatch fails", method: http.MethodPost, path: "/v1/users/register",
			body: body("Jane", "jane3@test.cd", "pwd", "dwp"), wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate email fails", method: http.MethodPost, path: "/v1/users/register",
			body: body("Jane", "taken@test.cd", "pwd", "pwd"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
	}
	runTests(t, app, tests)

	// registered accounts are students
	usr, err := usrRepo.GetUserByEmail(context.Background(), "jane@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if usr.Role != user.RoleStudent {
		t.Errorf("registered role = %v; want %v", usr.Role, user.RoleStudent)
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	tests := []httpTest{
		{
			name: "auth required", path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "get all", path: "/v1/users", token: getToken(t, admin),
			wantData: marchallList(t, admin, student),
		},
	}
	runTests(t, app, tests)
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	body := func(role user.Role, pwd string) []byte {
		return marchallObj(t, map[string]interface{}{
			"name": "Teacher", "email": "teacher@test.cd", "password": pwd, "password_confirm": pwd, "role": role,
		})
	}

	tests := []httpTest{
		{
			name: "admin required", method: http.MethodPost, path: "/v1/users", token: getToken(t, student),
			body: body(user.RoleTeacher, "LePassw0rd!"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "create teacher", method: http.MethodPost, path: "/v1/users", token: getToken(t, admin),
			body: body(user.RoleTeacher, "LePassw0rd!"), wantCode: http.StatusCreated,
		},
		{
			// admin-created accounts are subject to the password policy
			name: "weak password fails", method: http.MethodPost, path: "/v1/users", token: getToken(t, admin),
			body: body(user.RoleStudent, "123"), wantCode: http.StatusBadRequest,
		},
	}
	runTests(t, app, tests)
}

func Test_userApi_retrieve(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleStudent)

	tests := []httpTest{
		{name: "own account", path: "/v1/users/" + student.ID, token: getToken(t, student), wantData: marchallObj(t, student)},
		{name: "admin reads any", path: "/v1/users/" + student.ID, token: getToken(t, admin), wantData: marchallObj(t, student)},
		{
			name: "someone else's account hidden", path: "/v1/users/" + other.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	runTests(t, app, tests)
}

func Test_userApi_setRole(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	adminToken := getToken(t, admin)
	body := func(role user.Role) []byte { return marchallObj(t, map[string]user.Role{"role": role}) }

	tests := []httpTest{
		{
			name: "admin required", method: http.MethodPut, path: "/v1/users/" + student.ID + "/role",
			token: getToken(t, student), body: body(user.RoleTeacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "promote student", method: http.MethodPut, path: "/v1/users/" + student.ID + "/role",
			token: adminToken, body: body(user.RoleTeacher),
		},
		{
			name: "admin role not assignable", method: http.MethodPut, path: "/v1/users/" + student.ID + "/role",
			token: adminToken, body: body(user.RoleAdmin),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "role must be STUDENT or TEACHER"}),
		},
		{
			// toggling an admin account is a silent no-op
			name: "admin account unchanged", method: http.MethodPut, path: "/v1/users/" + admin.ID + "/role",
			token: adminToken, body: body(user.RoleStudent),
		},
	}
	runTests(t, app, tests)

	usr, err := usrRepo.GetUserByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if usr.Role != user.RoleTeacher {
		t.Errorf("role = %v; want %v", usr.Role, user.RoleTeacher)
	}
	if usr, _ = usrRepo.GetUserByID(context.Background(), admin.ID); !usr.IsAdmin() {
		t.Errorf("admin role = %v; want %v", usr.Role, user.RoleAdmin)
	}
}
