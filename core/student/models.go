package student

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matokeo/core"
)

// Mark results
const (
	ResultPass = "Pass"
	ResultFail = "Fail"
)

// Score bounds
const (
	MaxCE = 30
	MaxTE = 70
)

// Classes is the fixed set of class names students belong to.
var Classes = []string{"6th", "8th", "Plus One", "Plus Two", "D1", "D2", "D3"}

var (
	classTag  = "class"
	classText = "must be a valid class name"
)

// RegisterValidators registers this package's custom validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(classTag, classValidation)
	core.RegisterCustomTranslation(validate, translator, classTag, classText)
}

func classValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, class := range Classes {
		if val == class {
			return true
		}
	}
	return false
}

// PassRule is a named pass/fail rule. Two rules exist in the wild: the ledger
// historically stored results from the total rule while one display path used
// the per-component rule; they disagree on inputs like ce=20/te=25. Exactly
// one rule (configured, default total) is canonical for stored results.
type PassRule string

const (
	// PassRuleTotal passes a mark when ce+te >= 40.
	PassRuleTotal PassRule = "total"
	// PassRuleComponents passes a mark when ce >= 15 and te >= 28.
	PassRuleComponents PassRule = "components"
)

func (r PassRule) Evaluate(ce, te int) string {
	switch r {
	case PassRuleComponents:
		if ce >= 15 && te >= 28 {
			return ResultPass
		}
	default:
		if ce+te >= 40 {
			return ResultPass
		}
	}
	return ResultFail
}

type Student struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AdmissionNumber string    `json:"admission_number"`
	Class           string    `json:"class"`
	AcademicYear    string    `json:"academic_year"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// Mark is one subject's scores for one student. Immutable once created;
// at most one mark exists per (student, subject).
type Mark struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	TeacherID string    `json:"teacher_id,omitempty"` // empty once the author is deleted
	Subject   string    `json:"subject"`
	CE        int       `json:"ce"`
	TE        int       `json:"te"`
	Total     int       `json:"total"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewMark contains information needed to submit one mark entry.
// Score fields are pointers so that a missing field is distinguishable from
// a legitimate zero score.
type NewMark struct {
	AdmissionNumber string `json:"admission_number" validate:"required"`
	StudentName     string `json:"student_name" validate:"required"`
	Class           string `json:"class" validate:"required,class"`
	Subject         string `json:"subject" validate:"required"`
	CE              *int   `json:"ce" validate:"required,gte=0,lte=30"`
	TE              *int   `json:"te" validate:"required,gte=0,lte=70"`
}

func (nm *NewMark) Validate(validate *validator.Validate) error {
	nm.AdmissionNumber = core.CleanString(nm.AdmissionNumber)
	nm.StudentName = core.CleanString(nm.StudentName)
	nm.Class = core.CleanString(nm.Class)
	nm.Subject = core.CleanString(nm.Subject)
	return validate.Struct(nm)
}

// NewStudent contains information needed to create a student row explicitly.
type NewStudent struct {
	Name            string `json:"name" validate:"required"`
	AdmissionNumber string `json:"admission_number" validate:"required"`
	Class           string `json:"class" validate:"required,class"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.AdmissionNumber = core.CleanString(ns.AdmissionNumber)
	ns.Class = core.CleanString(ns.Class)
	return validate.Struct(ns)
}

// Result is a student's full published result set, as served publicly.
type Result struct {
	Name            string          `json:"name"`
	Class           string          `json:"class"`
	AdmissionNumber string          `json:"admission_number"`
	Subjects        []SubjectResult `json:"subjects"`
}

type SubjectResult struct {
	Name   string `json:"name"`
	CE     int    `json:"ce"`
	TE     int    `json:"te"`
	Total  int    `json:"total"`
	Result string `json:"result"`
}
