package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func markBody(t *testing.T, admissionNumber, name, class, subject string, ce, te int) []byte {
	t.Helper()
	return marchallObj(t, map[string]interface{}{
		"admission_number": admissionNumber,
		"student_name":     name,
		"class":            class,
		"subject":          subject,
		"ce":               ce,
		"te":               te,
	})
}

func Test_teacherApi_access(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	pending := testutil.CreateUser(t, usrRepo, "Pending", "p@school.test", "REG001", "pwd", user.RoleTeacher, false)
	inactive := testutil.CreateUser(t, usrRepo, "Gone", "gone@school.test", "REG002", "pwd", user.RoleTeacher, true)
	if _, err := usrRepo.UpdateUser(context.Background(), withStatus(inactive, user.StatusInactive)); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	tests := []httpTest{
		{
			name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admins have no teacher workspace", token: getToken(t, admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "unapproved teacher locked out", token: getToken(t, pending),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account pending approval"}),
		},
		{
			name: "deactivated teacher locked out", token: getToken(t, inactive),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/students", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_teacherApi_submitMark(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "t@school.test", "REG001", "pwd", user.RoleTeacher, true)
	token := getToken(t, teacher)

	t.Run("mark recorded and mirrored", func(t *testing.T) {
		body := markBody(t, "ADM001", "Asha", "Plus One", "Physics", 18, 30)
		req, rec := newAuthRequest(http.MethodPost, "/v1/teacher/marks", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var mark student.Mark
		decodeBody(t, rec, &mark)
		assert.Equal(t, 18, mark.CE)
		assert.Equal(t, 30, mark.TE)
		assert.Equal(t, 48, mark.Total)
		assert.Equal(t, student.ResultPass, mark.Result)
		assert.Equal(t, teacher.ID, mark.TeacherID)

		rows := appender.Rows()
		require.Len(t, rows, 1)
		assert.Equal(t, "ADM001", rows[0].AdmissionNumber)
		assert.Equal(t, 48, rows[0].Total)
	})

	tests := []httpTest{
		{
			name: "duplicate subject conflicts", body: markBody(t, "ADM001", "Asha", "Plus One", "Physics", 10, 10),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: student.ErrMarkExists.Error()}),
		},
		{
			name: "ce out of range", body: markBody(t, "ADM002", "Juma", "D1", "Math", 31, 10),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "te out of range", body: markBody(t, "ADM002", "Juma", "D1", "Math", 10, 71),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown class", body: markBody(t, "ADM002", "Juma", "9th", "Math", 10, 10),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class": "must be a valid class name"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/teacher/marks", token, tt.body)
			app.ServeHTTP(rec, req)
			if tt.wantData == nil {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("mid-session revocation blocks the next submit", func(t *testing.T) {
		// the token still says CanEnterMarks; the live record wins
		teacher.CanEnterMarks = false
		if _, err := usrRepo.UpdateUser(context.Background(), teacher); err != nil {
			t.Fatalf("UpdateUser() failed: %v", err)
		}

		body := markBody(t, "ADM003", "Neema", "D2", "Biology", 20, 30)
		req, rec := newAuthRequest(http.MethodPost, "/v1/teacher/marks", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "You don't have permission to enter marks at this time"}),
		}, rec)

		// other teacher endpoints remain available
		req, rec = newAuthRequest(http.MethodGet, "/v1/teacher/marks", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

// Test_markEntryLifecycle walks the full grant lifecycle through the API:
// an admin approves a pending teacher, the teacher submits a mark, the admin
// revokes mark entry, and the very next submit is refused.
func Test_markEntryLifecycle(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	pending := testutil.CreateUser(t, usrRepo, "Pending", "p@school.test", "REG001", "pwd", user.RoleTeacher, false)
	adminToken := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/teachers/"+pending.ID+"/approve", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var approved user.User
	decodeBody(t, rec, &approved)
	teacherToken := getToken(t, approved)

	body := markBody(t, "ADM001", "Asha", "Plus One", "Physics", 18, 30)
	req, rec = newAuthRequest(http.MethodPost, "/v1/teacher/marks", teacherToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var mark student.Mark
	decodeBody(t, rec, &mark)
	assert.Equal(t, 48, mark.Total)
	assert.Equal(t, student.ResultPass, mark.Result)

	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/teachers/"+pending.ID+"/revoke-mark-entry", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body = markBody(t, "ADM001", "Asha", "Plus One", "Chemistry", 20, 30)
	req, rec = newAuthRequest(http.MethodPost, "/v1/teacher/marks", teacherToken, body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "You don't have permission to enter marks at this time"}),
	}, rec)
}

func Test_teacherApi_students(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "t@school.test", "REG001", "pwd", user.RoleTeacher, true)
	token := getToken(t, teacher)

	asha := testutil.CreateStudent(t, stuRepo, "Asha", "ADM001", "Plus One")
	testutil.CreateStudent(t, stuRepo, "Juma", "ADM002", "D1")
	testutil.CreateMark(t, stuRepo, asha.ID, teacher.ID, "Physics", 20, 40)
	testutil.CreateMark(t, stuRepo, asha.ID, "other", "Chemistry", 10, 10)

	t.Run("students filtered by class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/students?class=Plus+One", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stus []student.Student
		decodeBody(t, rec, &stus)
		require.Len(t, stus, 1)
		assert.Equal(t, asha.ID, stus[0].ID)
	})

	t.Run("create student", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"name": "Neema", "admission_number": "ADM003", "class": "D2"})

		req, rec := newAuthRequest(http.MethodPost, "/v1/teacher/students", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created student.Student
		decodeBody(t, rec, &created)

		// resubmitting the same admission number returns the existing row
		req, rec = newAuthRequest(http.MethodPost, "/v1/teacher/students", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var again student.Student
		decodeBody(t, rec, &again)
		assert.Equal(t, created.ID, again.ID)
	})

	t.Run("marks by student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/students/"+asha.ID+"/marks", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var marks []student.Mark
		decodeBody(t, rec, &marks)
		require.Len(t, marks, 2)
		assert.Equal(t, "Chemistry", marks[0].Subject) // ordered by subject
	})

	t.Run("own marks only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/marks", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var marks []student.Mark
		decodeBody(t, rec, &marks)
		require.Len(t, marks, 1)
		assert.Equal(t, "Physics", marks[0].Subject)
	})
}

func Test_teacherApi_dashboard(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "t@school.test", "REG001", "pwd", user.RoleTeacher, true)

	asha := testutil.CreateStudent(t, stuRepo, "Asha", "ADM001", "Plus One")
	testutil.CreateMark(t, stuRepo, asha.ID, teacher.ID, "Physics", 20, 40) // 60 Pass
	testutil.CreateMark(t, stuRepo, asha.ID, teacher.ID, "Biology", 10, 10) // 20 Fail
	testutil.CreateMark(t, stuRepo, asha.ID, "other", "Chemistry", 25, 45)  // someone else's

	req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/dashboard", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dash report.TeacherDashboard
	decodeBody(t, rec, &dash)
	assert.Equal(t, 2, dash.TotalMarks)
	assert.Equal(t, 50, dash.SuccessRate)
	require.Len(t, dash.TopPerformers, 1)
	assert.Equal(t, "Asha", dash.TopPerformers[0].Name)
}
