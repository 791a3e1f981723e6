package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/matokeo/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// Account activity states
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// MarkEntryGrant records the latest grant of mark-entry permission.
type MarkEntryGrant struct {
	GrantedBy string    `json:"granted_by,omitempty"`
	GrantedAt time.Time `json:"granted_at,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type User struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	RegisterNumber string          `json:"register_number,omitempty"`
	Role           string          `json:"role"`
	IsApproved     bool            `json:"is_approved"`
	Status         string          `json:"status"`
	CanEnterMarks  bool            `json:"can_enter_marks"`
	MarkEntryGrant *MarkEntryGrant `json:"last_mark_entry_access,omitempty"`
	PasswordHash   []byte          `json:"-"`
	CreatedAt      time.Time       `json:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at"` // UTC
	LastLogin      time.Time       `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsActive() bool  { return u.Status == StatusActive }

// CanSubmitMarks reports whether this account may write to the mark ledger
// right now. All three axes must hold at the same time.
func (u *User) CanSubmitMarks() bool {
	return u.IsTeacher() && u.IsApproved && u.IsActive() && u.CanEnterMarks
}

// enforceMarkEntryInvariant keeps CanEnterMarks false on unapproved accounts.
func (u *User) enforceMarkEntryInvariant() {
	if !u.IsApproved {
		u.CanEnterMarks = false
	}
}

// PreRegisteredTeacher is an admin-curated allow-list entry a prospective
// teacher must match to complete signup. Consumed exactly once.
type PreRegisteredTeacher struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	RegisterNumber string    `json:"register_number"`
	IsRegistered   bool      `json:"is_registered"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// NewUser contains information needed to sign a teacher up.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	RegisterNumber  string `json:"register_number" validate:"required,alphanum_"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.RegisterNumber = core.CleanString(nu.RegisterNumber)
	return validate.Struct(nu)
}

// NewPreRegistration defines an allow-list entry to be created by an admin.
type NewPreRegistration struct {
	Name           string `json:"name" validate:"required"`
	RegisterNumber string `json:"register_number" validate:"required,alphanum_"`
}

func (np *NewPreRegistration) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.RegisterNumber = core.CleanString(np.RegisterNumber)
	return validate.Struct(np)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}
