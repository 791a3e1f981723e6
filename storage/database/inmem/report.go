package inmem

import (
	"context"
	"math"
	"sort"

	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/student"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CountStudents(ctx context.Context) (int, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()
	return len(repo.db.students), nil
}

func (repo *reportRepository) CountClasses(ctx context.Context) (int, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	classes := make(map[string]struct{})
	for _, stu := range repo.db.students {
		classes[stu.Class] = struct{}{}
	}
	return len(classes), nil
}

func (repo *reportRepository) CountMarks(ctx context.Context, teacherID string) (int, int, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	var total, passing int
	for _, mark := range repo.db.marks {
		if teacherID != "" && mark.TeacherID != teacherID {
			continue
		}
		total++
		if mark.Result == student.ResultPass {
			passing++
		}
	}
	return total, passing, nil
}

func (repo *reportRepository) QueryClassPerformance(ctx context.Context, teacherID string) ([]report.ClassPerformance, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	type classAgg struct {
		totalMarks int
		scoreSum   int
		passing    int
		students   map[string]struct{}
	}
	aggs := make(map[string]*classAgg)
	for _, mark := range repo.db.marks {
		if teacherID != "" && mark.TeacherID != teacherID {
			continue
		}
		stu, ok := repo.db.students[mark.StudentID]
		if !ok {
			continue
		}
		agg, ok := aggs[stu.Class]
		if !ok {
			agg = &classAgg{students: make(map[string]struct{})}
			aggs[stu.Class] = agg
		}
		agg.totalMarks++
		agg.scoreSum += mark.Total
		if mark.Result == student.ResultPass {
			agg.passing++
		}
		agg.students[stu.ID] = struct{}{}
	}

	perfs := make([]report.ClassPerformance, 0, len(aggs))
	for class, agg := range aggs {
		perfs = append(perfs, report.ClassPerformance{
			Class:          class,
			TotalMarks:     agg.totalMarks,
			AverageScore:   round2(float64(agg.scoreSum) / float64(agg.totalMarks)),
			PassPercentage: round2(float64(agg.passing) / float64(agg.totalMarks) * 100),
			StudentCount:   len(agg.students),
		})
	}
	sort.Slice(perfs, func(i, j int) bool { return perfs[i].Class < perfs[j].Class })
	return perfs, nil
}

func (repo *reportRepository) QueryTopStudents(ctx context.Context, teacherID string, n int) ([]report.TopStudent, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	type studentAgg struct {
		marks    int
		scoreSum int
	}
	aggs := make(map[string]*studentAgg)
	for _, mark := range repo.db.marks {
		if teacherID != "" && mark.TeacherID != teacherID {
			continue
		}
		agg, ok := aggs[mark.StudentID]
		if !ok {
			agg = new(studentAgg)
			aggs[mark.StudentID] = agg
		}
		agg.marks++
		agg.scoreSum += mark.Total
	}

	tops := make([]report.TopStudent, 0, len(aggs))
	for studentID, agg := range aggs {
		stu, ok := repo.db.students[studentID]
		if !ok {
			continue
		}
		tops = append(tops, report.TopStudent{
			StudentID:       stu.ID,
			Name:            stu.Name,
			AdmissionNumber: stu.AdmissionNumber,
			Class:           stu.Class,
			AverageScore:    round2(float64(agg.scoreSum) / float64(agg.marks)),
		})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].AverageScore != tops[j].AverageScore {
			return tops[i].AverageScore > tops[j].AverageScore
		}
		return tops[i].Name < tops[j].Name
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
