package inmem

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/matokeo/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	for _, u := range repo.db.users {
		if strings.EqualFold(u.Email, usr.Email) {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	for _, usr := range repo.db.users {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmailAndRegisterNumber(ctx context.Context, email, registerNumber string) (user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	for _, usr := range repo.db.users {
		if strings.EqualFold(usr.Email, email) && strings.EqualFold(usr.RegisterNumber, registerNumber) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryTeachers(ctx context.Context) ([]user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	return repo.filterUsers(func(usr user.User) bool {
		return usr.IsTeacher()
	}), nil
}

func (repo *userRepository) QueryPendingTeachers(ctx context.Context) ([]user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	return repo.filterUsers(func(usr user.User) bool {
		return usr.IsTeacher() && !usr.IsApproved && usr.IsActive()
	}), nil
}

// filterUsers returns matching users, most recent first. Callers must hold the lock.
func (repo *userRepository) filterUsers(match func(user.User) bool) []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if match(usr) {
			users = append(users, usr)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.users {
		if u.ID != usr.ID && strings.EqualFold(u.Email, usr.Email) {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)

	// mirrors the mark.teacher_id ON DELETE SET NULL foreign key
	for markID, mark := range repo.db.marks {
		if mark.TeacherID == id {
			mark.TeacherID = ""
			repo.db.marks[markID] = mark
		}
	}
	return nil
}

func (repo *userRepository) CreatePreRegistered(ctx context.Context, prt user.PreRegisteredTeacher) (user.PreRegisteredTeacher, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	for _, p := range repo.db.preRegs {
		if strings.EqualFold(p.RegisterNumber, prt.RegisterNumber) {
			return user.PreRegisteredTeacher{}, user.ErrRegisterNumExists
		}
	}
	prt.ID = uuid.New().String()
	repo.db.preRegs[prt.ID] = prt
	return prt, nil
}

func (repo *userRepository) GetUnregisteredPreRegistered(ctx context.Context, name, registerNumber string) (user.PreRegisteredTeacher, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	for _, prt := range repo.db.preRegs {
		if prt.Name == name && prt.RegisterNumber == registerNumber && !prt.IsRegistered {
			return prt, nil
		}
	}
	return user.PreRegisteredTeacher{}, user.ErrPreRegNotFound
}

func (repo *userRepository) QueryPreRegistered(ctx context.Context) ([]user.PreRegisteredTeacher, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	prts := make([]user.PreRegisteredTeacher, 0, len(repo.db.preRegs))
	for _, prt := range repo.db.preRegs {
		prts = append(prts, prt)
	}
	sort.Slice(prts, func(i, j int) bool { return prts[i].CreatedAt.After(prts[j].CreatedAt) })
	return prts, nil
}

func (repo *userRepository) UpdatePreRegistered(ctx context.Context, prt user.PreRegisteredTeacher) (user.PreRegisteredTeacher, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if _, ok := repo.db.preRegs[prt.ID]; !ok {
		return user.PreRegisteredTeacher{}, user.ErrPreRegNotFound
	}
	repo.db.preRegs[prt.ID] = prt
	return prt, nil
}

func (repo *userRepository) DeletePreRegistered(ctx context.Context, id string) error {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if _, ok := repo.db.preRegs[id]; !ok {
		return user.ErrPreRegNotFound
	}
	delete(repo.db.preRegs, id)
	return nil
}
