package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/student"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sql.DB) *reportRepository {
	return &reportRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo reportRepository) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM student`)
	return n, errors.Wrap(err, "counting students")
}

func (repo reportRepository) CountClasses(ctx context.Context) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(DISTINCT class) FROM student`)
	return n, errors.Wrap(err, "counting classes")
}

func (repo reportRepository) CountMarks(ctx context.Context, teacherID string) (int, int, error) {
	row := struct {
		Total   int `db:"total"`
		Passing int `db:"passing"`
	}{}
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE result = $1) AS passing
		FROM mark`
	args := []interface{}{student.ResultPass}
	if teacherID != "" {
		query += ` WHERE teacher_id = $2`
		args = append(args, teacherID)
	}
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, 0, errors.Wrap(err, "counting marks")
	}
	return row.Total, row.Passing, nil
}

type classPerformanceRow struct {
	Class          string  `db:"class"`
	TotalMarks     int     `db:"total_marks"`
	AverageScore   float64 `db:"average_score"`
	PassPercentage float64 `db:"pass_percentage"`
	StudentCount   int     `db:"student_count"`
}

func (repo reportRepository) QueryClassPerformance(ctx context.Context, teacherID string) ([]report.ClassPerformance, error) {
	query := `
		SELECT s.class,
		       COUNT(*) AS total_marks,
		       ROUND(AVG(m.total)::numeric, 2)::float8 AS average_score,
		       ROUND(100.0 * COUNT(*) FILTER (WHERE m.result = $1) / COUNT(*), 2)::float8 AS pass_percentage,
		       COUNT(DISTINCT m.student_id) AS student_count
		FROM mark m
		JOIN student s ON s.id = m.student_id`
	args := []interface{}{student.ResultPass}
	if teacherID != "" {
		query += ` WHERE m.teacher_id = $2`
		args = append(args, teacherID)
	}
	query += `
		GROUP BY s.class
		ORDER BY s.class`

	var rows []classPerformanceRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying class performance")
	}
	perfs := make([]report.ClassPerformance, 0, len(rows))
	for _, row := range rows {
		perfs = append(perfs, report.ClassPerformance(row))
	}
	return perfs, nil
}

type topStudentRow struct {
	StudentID       string  `db:"student_id"`
	Name            string  `db:"name"`
	AdmissionNumber string  `db:"admission_number"`
	Class           string  `db:"class"`
	AverageScore    float64 `db:"average_score"`
}

func (repo reportRepository) QueryTopStudents(ctx context.Context, teacherID string, n int) ([]report.TopStudent, error) {
	query := `
		SELECT s.id AS student_id,
		       s.name,
		       s.admission_number,
		       s.class,
		       ROUND(AVG(m.total)::numeric, 2)::float8 AS average_score
		FROM mark m
		JOIN student s ON s.id = m.student_id`
	args := []interface{}{n}
	if teacherID != "" {
		query += ` WHERE m.teacher_id = $2`
		args = append(args, teacherID)
	}
	query += `
		GROUP BY s.id, s.name, s.admission_number, s.class
		ORDER BY average_score DESC, s.name
		LIMIT $1`

	var rows []topStudentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying top students")
	}
	tops := make([]report.TopStudent, 0, len(rows))
	for _, row := range rows {
		tops = append(tops, report.TopStudent(row))
	}
	return tops, nil
}
