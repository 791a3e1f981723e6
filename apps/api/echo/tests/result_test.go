package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/matokeo/core/student"
	testutil "github.com/trezcool/matokeo/tests"
)

func Test_resultApi_retrieve(t *testing.T) {
	resetDB(t)

	asha := testutil.CreateStudent(t, stuRepo, "Asha", "ADM001", "Plus One")
	testutil.CreateMark(t, stuRepo, asha.ID, "t1", "Physics", 18, 30) // 48 Pass
	testutil.CreateMark(t, stuRepo, asha.ID, "t2", "Chemistry", 10, 20) // 30 Fail

	wantResult := student.Result{
		Name:            "Asha",
		Class:           "Plus One",
		AdmissionNumber: "ADM001",
		Subjects: []student.SubjectResult{
			{Name: "Chemistry", CE: 10, TE: 20, Total: 30, Result: student.ResultFail},
			{Name: "Physics", CE: 18, TE: 30, Total: 48, Result: student.ResultPass},
		},
	}

	// no token needed; the endpoint is public
	tests := []httpTest{
		{
			name: "result found", path: "/v1/results/ADM001",
			wantCode: http.StatusOK, wantData: marchallObj(t, wantResult),
		},
		{
			name: "lookup is case-insensitive", path: "/v1/results/adm001",
			wantCode: http.StatusOK, wantData: marchallObj(t, wantResult),
		},
		{
			name: "unknown admission number", path: "/v1/results/ADM999",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: student.ErrStudentNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
