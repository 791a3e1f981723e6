package inmem

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/matokeo/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	for _, s := range repo.db.students {
		if strings.EqualFold(s.AdmissionNumber, stu.AdmissionNumber) {
			return student.Student{}, student.ErrStudentExists
		}
	}
	stu.ID = uuid.New().String()
	repo.db.students[stu.ID] = stu
	return stu, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if _, ok := repo.db.students[stu.ID]; !ok {
		return student.Student{}, student.ErrStudentNotFound
	}
	repo.db.students[stu.ID] = stu
	return stu, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	if stu, ok := repo.db.students[id]; ok {
		return stu, nil
	}
	return student.Student{}, student.ErrStudentNotFound
}

func (repo *studentRepository) GetStudentByAdmissionNumber(ctx context.Context, admissionNumber string) (student.Student, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	for _, stu := range repo.db.students {
		if strings.EqualFold(stu.AdmissionNumber, admissionNumber) {
			return stu, nil
		}
	}
	return student.Student{}, student.ErrStudentNotFound
}

func (repo *studentRepository) QueryStudentsByClass(ctx context.Context, class string) ([]student.Student, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	stus := make([]student.Student, 0)
	for _, stu := range repo.db.students {
		if stu.Class == class {
			stus = append(stus, stu)
		}
	}
	sort.Slice(stus, func(i, j int) bool { return stus[i].Name < stus[j].Name })
	return stus, nil
}

func (repo *studentRepository) CreateMark(ctx context.Context, mark student.Mark) (student.Mark, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	// exact match on subject, like the (student_id, subject) unique index
	for _, m := range repo.db.marks {
		if m.StudentID == mark.StudentID && m.Subject == mark.Subject {
			return student.Mark{}, student.ErrMarkExists
		}
	}
	mark.ID = uuid.New().String()
	repo.db.marks[mark.ID] = mark
	return mark, nil
}

func (repo *studentRepository) QueryMarksByStudent(ctx context.Context, studentID string) ([]student.Mark, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	marks := make([]student.Mark, 0)
	for _, mark := range repo.db.marks {
		if mark.StudentID == studentID {
			marks = append(marks, mark)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].Subject < marks[j].Subject })
	return marks, nil
}

func (repo *studentRepository) QueryMarksByTeacher(ctx context.Context, teacherID string) ([]student.Mark, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	marks := make([]student.Mark, 0)
	for _, mark := range repo.db.marks {
		if mark.TeacherID == teacherID {
			marks = append(marks, mark)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.After(marks[j].CreatedAt) })
	return marks, nil
}
