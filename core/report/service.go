package report

import (
	"context"
	"math"

	"github.com/trezcool/matokeo/core"
)

type (
	// Repository is the read-only query surface over the mark ledger.
	// An empty teacherID means "all marks".
	Repository interface {
		CountStudents(ctx context.Context) (int, error)
		CountClasses(ctx context.Context) (int, error)
		CountMarks(ctx context.Context, teacherID string) (total, passing int, err error)
		// QueryClassPerformance groups marks by the student's class, ordered
		// by class name.
		QueryClassPerformance(ctx context.Context, teacherID string) ([]ClassPerformance, error)
		// QueryTopStudents ranks students by average score descending,
		// truncated to n.
		QueryTopStudents(ctx context.Context, teacherID string, n int) ([]TopStudent, error)
	}

	Service interface {
		AdminDashboard(ctx context.Context) (AdminDashboard, error)
		TeacherDashboard(ctx context.Context, teacherID string) (TeacherDashboard, error)
	}

	service struct {
		repo Repository
		topN int
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config) Service {
	return &service{
		repo: repo,
		topN: conf.Reports.TopN,
	}
}

// Every dashboard request recomputes from the full ledger; no caching.

func (svc *service) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	var dash AdminDashboard
	var err error

	if dash.TotalStudents, err = svc.repo.CountStudents(ctx); err != nil {
		return AdminDashboard{}, err
	}
	if dash.TotalClasses, err = svc.repo.CountClasses(ctx); err != nil {
		return AdminDashboard{}, err
	}

	total, passing, err := svc.repo.CountMarks(ctx, "")
	if err != nil {
		return AdminDashboard{}, err
	}
	dash.SuccessRate = successRate(total, passing)

	if dash.ClassPerformance, err = svc.repo.QueryClassPerformance(ctx, ""); err != nil {
		return AdminDashboard{}, err
	}
	if dash.TopPerformers, err = svc.repo.QueryTopStudents(ctx, "", svc.topN); err != nil {
		return AdminDashboard{}, err
	}
	return dash, nil
}

func (svc *service) TeacherDashboard(ctx context.Context, teacherID string) (TeacherDashboard, error) {
	var dash TeacherDashboard

	total, passing, err := svc.repo.CountMarks(ctx, teacherID)
	if err != nil {
		return TeacherDashboard{}, err
	}
	dash.TotalMarks = total
	dash.SuccessRate = successRate(total, passing)

	if dash.ClassPerformance, err = svc.repo.QueryClassPerformance(ctx, teacherID); err != nil {
		return TeacherDashboard{}, err
	}
	if dash.TopPerformers, err = svc.repo.QueryTopStudents(ctx, teacherID, svc.topN); err != nil {
		return TeacherDashboard{}, err
	}
	return dash, nil
}

func successRate(total, passing int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(passing) / float64(total) * 100))
}
