package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func Test_adminApi_access(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "t@school.test", "REG001", "pwd", user.RoleTeacher, true)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/admin/teachers",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "teachers cannot administrate", method: http.MethodGet, path: "/v1/admin/teachers",
			token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "teachers cannot approve", method: http.MethodPost, path: "/v1/admin/teachers/someid/approve",
			token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_adminApi_queryTeachers(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	testutil.CreateUser(t, usrRepo, "Approved", "a@school.test", "REG001", "pwd", user.RoleTeacher, true)
	pending := testutil.CreateUser(t, usrRepo, "Pending", "p@school.test", "REG002", "pwd", user.RoleTeacher, false)
	token := getToken(t, admin)

	t.Run("all teachers", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/teachers", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var teachers []user.User
		decodeBody(t, rec, &teachers)
		assert.Len(t, teachers, 2) // the admin account is not listed
	})

	t.Run("pending teachers only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/teachers/pending", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var teachers []user.User
		decodeBody(t, rec, &teachers)
		require.Len(t, teachers, 1)
		assert.Equal(t, pending.ID, teachers[0].ID)
	})
}

func Test_adminApi_approve(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	pending := testutil.CreateUser(t, usrRepo, "Pending", "p@school.test", "REG001", "pwd", user.RoleTeacher, false)
	token := getToken(t, admin)

	t.Run("unknown teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/teachers/nope/approve", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		}, rec)
	})

	t.Run("approval grants mark entry", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/teachers/"+pending.ID+"/approve", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		decodeBody(t, rec, &usr)
		assert.True(t, usr.IsApproved)
		assert.True(t, usr.CanEnterMarks)
		require.NotNil(t, usr.MarkEntryGrant)
		assert.Equal(t, admin.ID, usr.MarkEntryGrant.GrantedBy)
		assert.Equal(t, "Initial access granted upon approval", usr.MarkEntryGrant.Reason)
	})
}

func Test_adminApi_reject(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	pending := testutil.CreateUser(t, usrRepo, "Pending", "p@school.test", "REG001", "pwd", user.RoleTeacher, false)

	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/teachers/"+pending.ID+"/reject", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	_, err := usrRepo.GetUserByID(context.Background(), pending.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_adminApi_markEntry(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "t@school.test", "REG001", "pwd", user.RoleTeacher, true)
	pending := testutil.CreateUser(t, usrRepo, "Pending", "p@school.test", "REG002", "pwd", user.RoleTeacher, false)
	token := getToken(t, admin)

	grantPath := func(id string) string { return "/v1/admin/teachers/" + id + "/grant-mark-entry" }

	tests := []httpTest{
		{
			name: "reason is required", path: grantPath(teacher.ID), body: marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"reason": "this field is required"}),
		},
		{
			name: "unapproved account cannot be granted", path: grantPath(pending.ID),
			body:     marchallObj(t, map[string]string{"reason": "Resit marks"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotApproved.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("revoke then grant again", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/teachers/"+teacher.ID+"/revoke-mark-entry", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		decodeBody(t, rec, &usr)
		assert.False(t, usr.CanEnterMarks)
		assert.True(t, usr.IsApproved)

		req, rec = newAuthRequest(
			http.MethodPost, grantPath(teacher.ID), token,
			marchallObj(t, map[string]string{"reason": "Exam window reopened"}),
		)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		decodeBody(t, rec, &usr)
		assert.True(t, usr.CanEnterMarks)
		require.NotNil(t, usr.MarkEntryGrant)
		assert.Equal(t, admin.ID, usr.MarkEntryGrant.GrantedBy)
		assert.Equal(t, "Exam window reopened", usr.MarkEntryGrant.Reason)
	})
}

func Test_adminApi_updateStatus(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "t@school.test", "REG001", "pwd", user.RoleTeacher, true)
	token := getToken(t, admin)
	path := "/v1/admin/teachers/" + teacher.ID + "/status"

	t.Run("invalid status", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, token, marchallObj(t, map[string]string{"status": "frozen"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": user.ErrInvalidStatus.Error()}),
		}, rec)
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, token, marchallObj(t, map[string]string{"status": user.StatusInactive}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		decodeBody(t, rec, &usr)
		assert.Equal(t, user.StatusInactive, usr.Status)

		req, rec = newAuthRequest(http.MethodPatch, path, token, marchallObj(t, map[string]string{"status": user.StatusActive}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		decodeBody(t, rec, &usr)
		assert.Equal(t, user.StatusActive, usr.Status)
	})
}

func Test_adminApi_destroy(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "t@school.test", "REG001", "pwd", user.RoleTeacher, true)
	token := getToken(t, admin)

	t.Run("admins cannot delete themselves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/teachers/"+admin.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("teacher account deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/teachers/"+teacher.ID, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err := usrRepo.GetUserByID(context.Background(), teacher.ID)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func Test_adminApi_preRegistered(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)
	token := getToken(t, admin)

	var created user.PreRegisteredTeacher

	t.Run("create entry", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"name": "Jane Doe", "register_number": "REG100"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/pre-registered", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		decodeBody(t, rec, &created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Jane Doe", created.Name)
		assert.False(t, created.IsRegistered)
	})

	tests := []httpTest{
		{
			name: "missing register number", body: marchallObj(t, map[string]string{"name": "John Doe"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"register_number": "this field is required"}),
		},
		{
			name: "duplicate register number", body: marchallObj(t, map[string]string{"name": "Jane Again", "register_number": "REG100"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"register_number": user.ErrRegisterNumExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/admin/pre-registered", token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("list entries", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/pre-registered", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var prts []user.PreRegisteredTeacher
		decodeBody(t, rec, &prts)
		require.Len(t, prts, 1)
		assert.Equal(t, created.ID, prts[0].ID)
	})

	t.Run("delete entry", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/pre-registered/"+created.ID, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodDelete, "/v1/admin/pre-registered/"+created.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: user.ErrPreRegNotFound.Error()}),
		}, rec)
	})
}

func Test_adminApi_dashboard(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.test", "", "pwd", user.RoleAdmin, true)

	asha := testutil.CreateStudent(t, stuRepo, "Asha", "ADM001", "Plus One")
	juma := testutil.CreateStudent(t, stuRepo, "Juma", "ADM002", "D1")
	testutil.CreateMark(t, stuRepo, asha.ID, "t1", "Physics", 20, 40) // 60 Pass
	testutil.CreateMark(t, stuRepo, juma.ID, "t1", "Biology", 10, 10) // 20 Fail

	req, rec := newAuthRequest(http.MethodGet, "/v1/admin/dashboard", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dash report.AdminDashboard
	decodeBody(t, rec, &dash)
	assert.Equal(t, 2, dash.TotalStudents)
	assert.Equal(t, 2, dash.TotalClasses)
	assert.Equal(t, 50, dash.SuccessRate)
	assert.Len(t, dash.ClassPerformance, 2)
	assert.Len(t, dash.TopPerformers, 2)
}
