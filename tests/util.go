package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/user"
)

// NewValidator returns a fully configured validator + translator pair.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	return validate, translator
}

// NewConfig returns a test configuration.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, regNum, pwd, role string,
	approved bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:           name,
		Email:          email,
		RegisterNumber: regNum,
		Role:           role,
		IsApproved:     approved,
		Status:         user.StatusActive,
		CanEnterMarks:  approved && role == user.RoleTeacher,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreatePreRegistered(t *testing.T, repo user.Repository, name, regNum string) user.PreRegisteredTeacher {
	t.Helper()

	prt, err := repo.CreatePreRegistered(context.Background(), user.PreRegisteredTeacher{
		Name:           name,
		RegisterNumber: regNum,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreatePreRegistered() failed: %v", err)
	}
	return prt
}

func CreateStudent(t *testing.T, repo student.Repository, name, admissionNumber, class string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	stu, err := repo.CreateStudent(context.Background(), student.Student{
		Name:            name,
		AdmissionNumber: admissionNumber,
		Class:           class,
		AcademicYear:    "2026",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}

func CreateMark(t *testing.T, repo student.Repository, studentID, teacherID, subject string, ce, te int) student.Mark {
	t.Helper()

	now := time.Now().UTC()
	result := student.ResultFail
	if ce+te >= 40 {
		result = student.ResultPass
	}
	mark, err := repo.CreateMark(context.Background(), student.Mark{
		StudentID: studentID,
		TeacherID: teacherID,
		Subject:   subject,
		CE:        ce,
		TE:        te,
		Total:     ce + te,
		Result:    result,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateMark() failed: %v", err)
	}
	return mark
}
