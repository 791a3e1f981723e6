package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
)

const uniqueViolation = "23505"

// newestFirst orders account listings most recent first.
var newestFirst = core.DBOrdering{Field: "created_at"}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

type userRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	RegisterNumber sql.NullString `db:"register_number"`
	Role           string         `db:"role"`
	IsApproved     bool           `db:"is_approved"`
	Status         string         `db:"status"`
	CanEnterMarks  bool           `db:"can_enter_marks"`
	GrantedBy      sql.NullString `db:"mark_entry_granted_by"`
	GrantedAt      sql.NullTime   `db:"mark_entry_granted_at"`
	GrantReason    sql.NullString `db:"mark_entry_reason"`
	PasswordHash   []byte         `db:"password_hash"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	LastLogin      sql.NullTime   `db:"last_login"`
}

func (repo userRepository) toRow(usr user.User) userRow {
	row := userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Email:          usr.Email,
		RegisterNumber: sql.NullString{String: usr.RegisterNumber, Valid: usr.RegisterNumber != ""},
		Role:           usr.Role,
		IsApproved:     usr.IsApproved,
		Status:         usr.Status,
		CanEnterMarks:  usr.CanEnterMarks,
		PasswordHash:   usr.PasswordHash,
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
		LastLogin:      sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
	if grant := usr.MarkEntryGrant; grant != nil {
		row.GrantedBy = sql.NullString{String: grant.GrantedBy, Valid: grant.GrantedBy != ""}
		row.GrantedAt = sql.NullTime{Time: grant.GrantedAt.UTC(), Valid: !grant.GrantedAt.IsZero()}
		row.GrantReason = sql.NullString{String: grant.Reason, Valid: grant.Reason != ""}
	}
	return row
}

func (repo userRepository) fromRow(row userRow) user.User {
	usr := user.User{
		ID:             row.ID,
		Name:           row.Name,
		Email:          row.Email,
		RegisterNumber: row.RegisterNumber.String,
		Role:           row.Role,
		IsApproved:     row.IsApproved,
		Status:         row.Status,
		CanEnterMarks:  row.CanEnterMarks,
		PasswordHash:   row.PasswordHash,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		LastLogin:      row.LastLogin.Time,
	}
	if row.GrantedBy.Valid || row.GrantedAt.Valid {
		usr.MarkEntryGrant = &user.MarkEntryGrant{
			GrantedBy: row.GrantedBy.String,
			GrantedAt: row.GrantedAt.Time,
			Reason:    row.GrantReason.String,
		}
	}
	return usr
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error, constraint string) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.toRow(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (id, name, email, register_number, role, is_approved, status, can_enter_marks,
		                    mark_entry_granted_by, mark_entry_granted_at, mark_entry_reason,
		                    password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :email, :register_number, :role, :is_approved, :status, :can_enter_marks,
		        :mark_entry_granted_by, :mark_entry_granted_at, :mark_entry_reason,
		        :password_hash, :created_at, :updated_at, :last_login)`, row)
	if err != nil {
		if isUniqueViolation(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by id")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by email")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUserByEmailAndRegisterNumber(ctx context.Context, email, registerNumber string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM "user"
		WHERE lower(email) = lower($1) AND lower(register_number) = lower($2)`, email, registerNumber)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by email and register number")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryTeachers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM "user" WHERE role = $1 ORDER BY `+newestFirst.String(), user.RoleTeacher)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) QueryPendingTeachers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM "user"
		WHERE role = $1 AND NOT is_approved AND status = $2
		ORDER BY `+newestFirst.String(), user.RoleTeacher, user.StatusActive)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending teachers")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) fromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "user"
		SET name = :name, email = :email, register_number = :register_number, role = :role,
		    is_approved = :is_approved, status = :status, can_enter_marks = :can_enter_marks,
		    mark_entry_granted_by = :mark_entry_granted_by, mark_entry_granted_at = :mark_entry_granted_at,
		    mark_entry_reason = :mark_entry_reason, password_hash = :password_hash,
		    updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`, row)
	if err != nil {
		if isUniqueViolation(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

type preRegRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	RegisterNumber string    `db:"register_number"`
	IsRegistered   bool      `db:"is_registered"`
	CreatedAt      time.Time `db:"created_at"`
}

func (repo userRepository) fromPreRegRow(row preRegRow) user.PreRegisteredTeacher {
	return user.PreRegisteredTeacher{
		ID:             row.ID,
		Name:           row.Name,
		RegisterNumber: row.RegisterNumber,
		IsRegistered:   row.IsRegistered,
		CreatedAt:      row.CreatedAt,
	}
}

func (repo userRepository) CreatePreRegistered(ctx context.Context, prt user.PreRegisteredTeacher) (user.PreRegisteredTeacher, error) {
	prt.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO pre_registered_teacher (id, name, register_number, is_registered, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		prt.ID, prt.Name, prt.RegisterNumber, prt.IsRegistered, prt.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "pre_registered_teacher_register_number_key") {
			return user.PreRegisteredTeacher{}, user.ErrRegisterNumExists
		}
		return user.PreRegisteredTeacher{}, errors.Wrap(err, "inserting pre-registered teacher")
	}
	return prt, nil
}

func (repo userRepository) GetUnregisteredPreRegistered(ctx context.Context, name, registerNumber string) (user.PreRegisteredTeacher, error) {
	var row preRegRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM pre_registered_teacher
		WHERE name = $1 AND register_number = $2 AND NOT is_registered`, name, registerNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.PreRegisteredTeacher{}, user.ErrPreRegNotFound
		}
		return user.PreRegisteredTeacher{}, errors.Wrap(err, "getting pre-registered teacher")
	}
	return repo.fromPreRegRow(row), nil
}

func (repo userRepository) QueryPreRegistered(ctx context.Context) ([]user.PreRegisteredTeacher, error) {
	var rows []preRegRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM pre_registered_teacher ORDER BY `+newestFirst.String())
	if err != nil {
		return nil, errors.Wrap(err, "querying pre-registered teachers")
	}
	prts := make([]user.PreRegisteredTeacher, 0, len(rows))
	for _, row := range rows {
		prts = append(prts, repo.fromPreRegRow(row))
	}
	return prts, nil
}

func (repo userRepository) UpdatePreRegistered(ctx context.Context, prt user.PreRegisteredTeacher) (user.PreRegisteredTeacher, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE pre_registered_teacher
		SET name = $2, register_number = $3, is_registered = $4
		WHERE id = $1`,
		prt.ID, prt.Name, prt.RegisterNumber, prt.IsRegistered)
	if err != nil {
		return user.PreRegisteredTeacher{}, errors.Wrap(err, "updating pre-registered teacher")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.PreRegisteredTeacher{}, user.ErrPreRegNotFound
	}
	return prt, nil
}

func (repo userRepository) DeletePreRegistered(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM pre_registered_teacher WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting pre-registered teacher")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrPreRegNotFound
	}
	return nil
}
