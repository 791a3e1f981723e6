// Package inmem provides map-backed repository implementations used by tests.
package inmem

import (
	"sync"

	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/user"
)

// DB is a shared in-memory store; the repositories in this package all
// operate on the same DB so cross-entity queries (reports) see one world.
type DB struct {
	mut      sync.RWMutex
	users    map[string]user.User
	preRegs  map[string]user.PreRegisteredTeacher
	students map[string]student.Student
	marks    map[string]student.Mark
}

func NewDB() *DB {
	db := new(DB)
	db.Reset()
	return db
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.mut.Lock()
	defer db.mut.Unlock()
	db.users = make(map[string]user.User)
	db.preRegs = make(map[string]user.PreRegisteredTeacher)
	db.students = make(map[string]student.Student)
	db.marks = make(map[string]student.Mark)
}
