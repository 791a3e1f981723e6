package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/student"
)

var (
	byName    = core.DBOrdering{Field: "name", Ascending: true}
	bySubject = core.DBOrdering{Field: "subject", Ascending: true}
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sql.DB) *studentRepository {
	return &studentRepository{db: sqlx.NewDb(db, "postgres")}
}

type studentRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	AdmissionNumber string    `db:"admission_number"`
	Class           string    `db:"class"`
	AcademicYear    string    `db:"academic_year"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (repo studentRepository) fromStudentRow(row studentRow) student.Student {
	return student.Student(row)
}

type markRow struct {
	ID        string         `db:"id"`
	StudentID string         `db:"student_id"`
	TeacherID sql.NullString `db:"teacher_id"`
	Subject   string         `db:"subject"`
	CE        int            `db:"ce"`
	TE        int            `db:"te"`
	Total     int            `db:"total"`
	Result    string         `db:"result"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (repo studentRepository) fromMarkRow(row markRow) student.Mark {
	return student.Mark{
		ID:        row.ID,
		StudentID: row.StudentID,
		TeacherID: row.TeacherID.String,
		Subject:   row.Subject,
		CE:        row.CE,
		TE:        row.TE,
		Total:     row.Total,
		Result:    row.Result,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (repo studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	stu.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO student (id, name, admission_number, class, academic_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stu.ID, stu.Name, stu.AdmissionNumber, stu.Class, stu.AcademicYear,
		stu.CreatedAt.UTC(), stu.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "student_admission_number_key") {
			return student.Student{}, student.ErrStudentExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return stu, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE student
		SET name = $2, admission_number = $3, class = $4, academic_year = $5, updated_at = $6
		WHERE id = $1`,
		stu.ID, stu.Name, stu.AdmissionNumber, stu.Class, stu.AcademicYear, stu.UpdatedAt.UTC())
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrStudentNotFound
	}
	return stu, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by id")
	}
	return repo.fromStudentRow(row), nil
}

func (repo studentRepository) GetStudentByAdmissionNumber(ctx context.Context, admissionNumber string) (student.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM student WHERE lower(admission_number) = lower($1)`, admissionNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by admission number")
	}
	return repo.fromStudentRow(row), nil
}

func (repo studentRepository) QueryStudentsByClass(ctx context.Context, class string) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM student WHERE class = $1 ORDER BY `+byName.String(), class)
	if err != nil {
		return nil, errors.Wrap(err, "querying students by class")
	}
	stus := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		stus = append(stus, repo.fromStudentRow(row))
	}
	return stus, nil
}

func (repo studentRepository) CreateMark(ctx context.Context, mark student.Mark) (student.Mark, error) {
	mark.ID = uuid.New().String()
	teacherID := sql.NullString{String: mark.TeacherID, Valid: mark.TeacherID != ""}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO mark (id, student_id, teacher_id, subject, ce, te, total, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		mark.ID, mark.StudentID, teacherID, mark.Subject, mark.CE, mark.TE,
		mark.Total, mark.Result, mark.CreatedAt.UTC(), mark.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "mark_student_subject_key") {
			return student.Mark{}, student.ErrMarkExists
		}
		return student.Mark{}, errors.Wrap(err, "inserting mark")
	}
	return mark, nil
}

func (repo studentRepository) QueryMarksByStudent(ctx context.Context, studentID string) ([]student.Mark, error) {
	var rows []markRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM mark WHERE student_id = $1 ORDER BY `+bySubject.String(), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying marks by student")
	}
	return repo.fromMarkRows(rows), nil
}

func (repo studentRepository) QueryMarksByTeacher(ctx context.Context, teacherID string) ([]student.Mark, error) {
	var rows []markRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM mark WHERE teacher_id = $1 ORDER BY `+newestFirst.String(), teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying marks by teacher")
	}
	return repo.fromMarkRows(rows), nil
}

func (repo studentRepository) fromMarkRows(rows []markRow) []student.Mark {
	marks := make([]student.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, repo.fromMarkRow(row))
	}
	return marks
}
