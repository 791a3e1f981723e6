package student

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("a student with this admission number already exists")
	ErrMarkExists      = errors.New("a mark for this student and subject already exists")

	mirrorTimeout = 10 * time.Second
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		UpdateStudent(ctx context.Context, stu Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByAdmissionNumber(ctx context.Context, admissionNumber string) (Student, error)
		QueryStudentsByClass(ctx context.Context, class string) ([]Student, error)

		// CreateMark fails with ErrMarkExists if a mark for the same
		// (student, subject) pair exists.
		CreateMark(ctx context.Context, mark Mark) (Mark, error)
		QueryMarksByStudent(ctx context.Context, studentID string) ([]Mark, error) // ordered by subject
		QueryMarksByTeacher(ctx context.Context, teacherID string) ([]Mark, error) // most recent first
	}

	Service interface {
		// SubmitMark validates scores, resolves or creates the student row and
		// appends to the mark ledger. On success a best-effort mirror write is
		// fired toward the external spreadsheet; its failure never surfaces.
		SubmitMark(ctx context.Context, teacherID string, nm NewMark) (Mark, error)
		// CreateStudent creates a student row, or returns the existing one
		// for a duplicate admission number (created == false).
		CreateStudent(ctx context.Context, ns NewStudent) (stu Student, created bool, err error)
		StudentsByClass(ctx context.Context, class string) ([]Student, error)
		MarksByStudent(ctx context.Context, studentID string) ([]Mark, error)
		MarksByTeacher(ctx context.Context, teacherID string) ([]Mark, error)
		// ResultByAdmissionNumber serves the public result lookup.
		ResultByAdmissionNumber(ctx context.Context, admissionNumber string) (Result, error)
	}

	service struct {
		repo     Repository
		appender core.RowAppender
		logger   core.Logger
		validate *validator.Validate
		rule     PassRule
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, appender core.RowAppender, logger core.Logger, validate *validator.Validate, conf *core.Config) Service {
	return &service{
		repo:     repo,
		appender: appender,
		logger:   logger,
		validate: validate,
		rule:     PassRule(conf.Marks.PassRule),
	}
}

func (svc *service) SubmitMark(ctx context.Context, teacherID string, nm NewMark) (Mark, error) {
	mark, stu, err := svc.submit(ctx, teacherID, nm)
	if err != nil {
		return Mark{}, err
	}
	go svc.mirror(stu, mark)
	return mark, nil
}

func (svc *service) submit(ctx context.Context, teacherID string, nm NewMark) (Mark, Student, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Mark{}, Student{}, err
	}

	stu, err := svc.resolveStudent(ctx, nm)
	if err != nil {
		return Mark{}, Student{}, pkgerrors.Wrap(err, "resolving student")
	}

	ce, te := *nm.CE, *nm.TE
	now := time.Now().UTC()
	mark := Mark{
		StudentID: stu.ID,
		TeacherID: teacherID,
		Subject:   nm.Subject,
		CE:        ce,
		TE:        te,
		Total:     ce + te,
		Result:    svc.rule.Evaluate(ce, te),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mark, err = svc.repo.CreateMark(ctx, mark); err != nil {
		return Mark{}, Student{}, err
	}
	return mark, stu, nil
}

// resolveStudent finds the student by admission number, creating the row if
// absent and updating name/class in place if a later submission changed them.
func (svc *service) resolveStudent(ctx context.Context, nm NewMark) (Student, error) {
	stu, err := svc.repo.GetStudentByAdmissionNumber(ctx, nm.AdmissionNumber)
	if err == ErrStudentNotFound {
		now := time.Now().UTC()
		stu = Student{
			Name:            nm.StudentName,
			AdmissionNumber: nm.AdmissionNumber,
			Class:           nm.Class,
			AcademicYear:    strconv.Itoa(now.Year()),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		stu, err = svc.repo.CreateStudent(ctx, stu)
		if err == ErrStudentExists {
			// lost a concurrent-create race; the winner's row is authoritative
			return svc.repo.GetStudentByAdmissionNumber(ctx, nm.AdmissionNumber)
		}
		return stu, err
	}
	if err != nil {
		return Student{}, err
	}

	if stu.Name != nm.StudentName || stu.Class != nm.Class {
		stu.Name = nm.StudentName
		stu.Class = nm.Class
		stu.UpdatedAt = time.Now().UTC()
		return svc.repo.UpdateStudent(ctx, stu)
	}
	return stu, nil
}

func (svc *service) mirror(stu Student, mark Mark) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	row := core.MarkRow{
		StudentName:     stu.Name,
		AdmissionNumber: stu.AdmissionNumber,
		Class:           stu.Class,
		Subject:         mark.Subject,
		CE:              mark.CE,
		TE:              mark.TE,
		Total:           mark.Total,
		Result:          mark.Result,
		SubmittedAt:     mark.CreatedAt,
	}
	if err := svc.appender.AppendRow(ctx, row); err != nil {
		svc.logger.Error("mirroring mark to spreadsheet", pkgerrors.Wrap(err, "appending row"))
	}
}

func (svc *service) CreateStudent(ctx context.Context, ns NewStudent) (Student, bool, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, false, err
	}

	if stu, err := svc.repo.GetStudentByAdmissionNumber(ctx, ns.AdmissionNumber); err == nil {
		return stu, false, nil
	} else if err != ErrStudentNotFound {
		return Student{}, false, err
	}

	now := time.Now().UTC()
	stu := Student{
		Name:            ns.Name,
		AdmissionNumber: ns.AdmissionNumber,
		Class:           ns.Class,
		AcademicYear:    strconv.Itoa(now.Year()),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	stu, err := svc.repo.CreateStudent(ctx, stu)
	if err == ErrStudentExists {
		stu, err = svc.repo.GetStudentByAdmissionNumber(ctx, ns.AdmissionNumber)
		return stu, false, err
	}
	return stu, err == nil, err
}

func (svc *service) StudentsByClass(ctx context.Context, class string) ([]Student, error) {
	return svc.repo.QueryStudentsByClass(ctx, core.CleanString(class))
}

func (svc *service) MarksByStudent(ctx context.Context, studentID string) ([]Mark, error) {
	return svc.repo.QueryMarksByStudent(ctx, studentID)
}

func (svc *service) MarksByTeacher(ctx context.Context, teacherID string) ([]Mark, error) {
	return svc.repo.QueryMarksByTeacher(ctx, teacherID)
}

func (svc *service) ResultByAdmissionNumber(ctx context.Context, admissionNumber string) (Result, error) {
	stu, err := svc.repo.GetStudentByAdmissionNumber(ctx, core.CleanString(admissionNumber))
	if err != nil {
		return Result{}, err
	}
	marks, err := svc.repo.QueryMarksByStudent(ctx, stu.ID)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Name:            stu.Name,
		Class:           stu.Class,
		AdmissionNumber: stu.AdmissionNumber,
		Subjects:        make([]SubjectResult, 0, len(marks)),
	}
	for _, mark := range marks {
		res.Subjects = append(res.Subjects, SubjectResult{
			Name:   mark.Subject,
			CE:     mark.CE,
			TE:     mark.TE,
			Total:  mark.Total,
			Result: mark.Result,
		})
	}
	return res, nil
}
