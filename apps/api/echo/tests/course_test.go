package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/shulehub/shule/core/user"
	testutil "github.com/shulehub/shule/tests"
)

func Test_courseApi_createAndQuery(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	crs := testutil.CreateCourse(t, crsRepo, "Algebra", teacher.ID)
	otherCrs := testutil.CreateCourse(t, crsRepo, "History", other.ID)
	testutil.CreateEnrollment(t, crsRepo, student.ID, crs.ID)

	body := func(title, teacherID string) []byte {
		return marchallObj(t, map[string]string{"title": title, "teacher_id": teacherID})
	}

	tests := []httpTest{
		{
			name: "auth required", path: "/v1/courses",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{name: "admin sees all", path: "/v1/courses", token: getToken(t, admin), wantData: marchallList(t, crs, otherCrs)},
		{name: "teacher sees own", path: "/v1/courses", token: getToken(t, teacher), wantData: marchallList(t, crs)},
		{name: "student sees enrolled", path: "/v1/courses", token: getToken(t, student), wantData: marchallList(t, crs)},
		{
			name: "create needs admin", method: http.MethodPost, path: "/v1/courses", token: getToken(t, teacher),
			body: body("Physics", teacher.ID), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "create", method: http.MethodPost, path: "/v1/courses", token: getToken(t, admin),
			body: body("Physics", teacher.ID), wantCode: http.StatusCreated,
		},
		{
			name: "create with student as teacher fails", method: http.MethodPost, path: "/v1/courses",
			token: getToken(t, admin), body: body("Physics", student.ID), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher_id": "user is not a teacher"}),
		},
		{
			name: "title required", method: http.MethodPost, path: "/v1/courses", token: getToken(t, admin),
			body: body("", teacher.ID), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
	}
	runTests(t, app, tests)
}

func Test_courseApi_enrollAndStudents(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	crs := testutil.CreateCourse(t, crsRepo, "Algebra", teacher.ID)
	body := marchallObj(t, map[string]string{"student_id": student.ID})

	tests := []httpTest{
		{
			name: "enroll needs admin", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll",
			token: getToken(t, teacher), body: body, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "enroll", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll",
			token: getToken(t, admin), body: body, wantCode: http.StatusCreated,
		},
		{
			name: "enroll twice fails", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll",
			token: getToken(t, admin), body: body, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "student is already enrolled in this course"}),
		},
		{
			name: "enroll in unknown course", method: http.MethodPost, path: "/v1/courses/nope/enroll",
			token: getToken(t, admin), body: body, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "students for owner", path: "/v1/courses/" + crs.ID + "/students", token: getToken(t, teacher),
			wantData: marchallList(t, student),
		},
		{
			name: "students hidden from other teachers", path: "/v1/courses/" + crs.ID + "/students",
			token: getToken(t, other), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "students hidden from students", path: "/v1/courses/" + crs.ID + "/students",
			token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	runTests(t, app, tests)
}

func Test_courseApi_materials(t *testing.T) {
	app := setup(t)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)
	outsider := testutil.CreateUser(t, usrRepo, "Out", "out@test.cd", "", user.RoleStudent)

	crs := testutil.CreateCourse(t, crsRepo, "Algebra", teacher.ID)
	testutil.CreateEnrollment(t, crsRepo, student.ID, crs.ID)

	path := "/v1/courses/" + crs.ID + "/materials"
	body := marchallObj(t, map[string]string{"content": "Chapter 1"})

	tests := []httpTest{
		{
			name: "owner adds material", method: http.MethodPost, path: path, token: getToken(t, teacher),
			body: body, wantCode: http.StatusCreated,
		},
		{
			name: "other teacher cannot add", method: http.MethodPost, path: path, token: getToken(t, other),
			body: body, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "student cannot add", method: http.MethodPost, path: path, token: getToken(t, student),
			body: body, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "enrolled student reads", path: path, token: getToken(t, student)},
		{
			name: "outsider cannot read", path: path, token: getToken(t, outsider),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	runTests(t, app, tests)
}

func Test_courseApi_grades(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	crs1 := testutil.CreateCourse(t, crsRepo, "Algebra", teacher.ID)
	crs2 := testutil.CreateCourse(t, crsRepo, "History", teacher.ID)
	testutil.CreateEnrollment(t, crsRepo, student.ID, crs1.ID)
	testutil.CreateEnrollment(t, crsRepo, student.ID, crs2.ID)

	gradeBody := func(value float64) []byte {
		return marchallObj(t, map[string]interface{}{"student_id": student.ID, "value": value})
	}
	avg := func(v float64) []byte {
		return marchallObj(t, map[string]interface{}{"student_id": student.ID, "average": v})
	}

	tests := []httpTest{
		{
			name: "no grades yet", path: "/v1/students/" + student.ID + "/average", token: getToken(t, student),
			wantData: marchallObj(t, map[string]interface{}{"student_id": student.ID, "average": nil}),
		},
		{
			name: "other teacher cannot grade", method: http.MethodPut, path: "/v1/courses/" + crs1.ID + "/grades",
			token: getToken(t, other), body: gradeBody(50), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "grade out of range fails", method: http.MethodPut, path: "/v1/courses/" + crs1.ID + "/grades",
			token: getToken(t, teacher), body: gradeBody(150), wantCode: http.StatusBadRequest,
		},
		{name: "owner grades", method: http.MethodPut, path: "/v1/courses/" + crs1.ID + "/grades", token: getToken(t, teacher), body: gradeBody(70)},
		{name: "regrade replaces", method: http.MethodPut, path: "/v1/courses/" + crs1.ID + "/grades", token: getToken(t, teacher), body: gradeBody(80)},
		{name: "admin grades too", method: http.MethodPut, path: "/v1/courses/" + crs2.ID + "/grades", token: getToken(t, admin), body: gradeBody(90)},
		{name: "own average", path: "/v1/students/" + student.ID + "/average", token: getToken(t, student), wantData: avg(85)},
		{name: "admin reads average", path: "/v1/students/" + student.ID + "/average", token: getToken(t, admin), wantData: avg(85)},
		{
			name: "someone else's average hidden", path: "/v1/students/" + student.ID + "/average",
			token: getToken(t, other), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	runTests(t, app, tests)

	grades, err := crsRepo.QueryGradesByStudent(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("QueryGradesByStudent() failed: %v", err)
	}
	if len(grades) != 2 {
		t.Errorf("grades len = %d; want 2", len(grades))
	}
}

func Test_courseApi_destroy(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	crs := testutil.CreateCourse(t, crsRepo, "Algebra", teacher.ID)
	testutil.CreateEnrollment(t, crsRepo, student.ID, crs.ID)

	tests := []httpTest{
		{
			name: "destroy needs admin", method: http.MethodDelete, path: "/v1/courses/" + crs.ID,
			token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "destroy", method: http.MethodDelete, path: "/v1/courses/" + crs.ID,
			token: getToken(t, admin), wantCode: http.StatusNoContent,
		},
		{
			name: "destroy again", method: http.MethodDelete, path: "/v1/courses/" + crs.ID,
			token: getToken(t, admin), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	runTests(t, app, tests)

	// enrollments are cascaded away
	enrolled, err := crsRepo.IsEnrolled(context.Background(), student.ID, crs.ID)
	if err != nil {
		t.Fatalf("IsEnrolled() failed: %v", err)
	}
	if enrolled {
		t.Error("IsEnrolled() = true; want false after destroy")
	}
}
