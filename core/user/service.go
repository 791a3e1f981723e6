package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matokeo/core"
)

var (
	// errors
	ErrNotFound            = errors.New("user not found")
	ErrEmailExists         = errors.New("a user with this email already exists")
	ErrRegisterNumExists   = errors.New("a teacher with this register number already exists")
	ErrPreRegNotFound      = errors.New("pre-registered teacher not found")
	ErrInvalidTeacherInfo  = errors.New("invalid teacher details, please check your name and register number")
	ErrNotApproved         = errors.New("account is not approved")
	ErrNotTeacher          = errors.New("user is not a teacher")
	ErrInvalidStatus       = errors.New("invalid status value")

	approvalGrantReason = "Initial access granted upon approval"
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByEmailAndRegisterNumber(ctx context.Context, email, registerNumber string) (User, error)
		QueryTeachers(ctx context.Context) ([]User, error)
		// QueryPendingTeachers returns unapproved, active teacher accounts,
		// most recent first.
		QueryPendingTeachers(ctx context.Context) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error

		CreatePreRegistered(ctx context.Context, prt PreRegisteredTeacher) (PreRegisteredTeacher, error)
		// GetUnregisteredPreRegistered matches an unconsumed allow-list entry
		// on (name, registerNumber).
		GetUnregisteredPreRegistered(ctx context.Context, name, registerNumber string) (PreRegisteredTeacher, error)
		QueryPreRegistered(ctx context.Context) ([]PreRegisteredTeacher, error)
		UpdatePreRegistered(ctx context.Context, prt PreRegisteredTeacher) (PreRegisteredTeacher, error)
		DeletePreRegistered(ctx context.Context, id string) error
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		// GetForLogin finds the account a login attempt refers to: teachers
		// authenticate with email + register number, admins with email only.
		GetForLogin(ctx context.Context, email, registerNumber string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		CreateAdmin(ctx context.Context, name, email, pwd string) (User, error)

		QueryTeachers(ctx context.Context) ([]User, error)
		QueryPendingTeachers(ctx context.Context) ([]User, error)
		Approve(ctx context.Context, adminID, teacherID string) (User, error)
		Reject(ctx context.Context, teacherID string) error
		GrantMarkEntry(ctx context.Context, adminID, teacherID, reason string) (User, error)
		RevokeMarkEntry(ctx context.Context, teacherID string) (User, error)
		SetStatus(ctx context.Context, teacherID, status string) (User, error)
		Delete(ctx context.Context, teacherID string) error

		PreRegister(ctx context.Context, np NewPreRegistration) (PreRegisteredTeacher, error)
		QueryPreRegistered(ctx context.Context) ([]PreRegisteredTeacher, error)
		DeletePreRegistered(ctx context.Context, id string) error

		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		conf     *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) Service {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		conf:     conf,
	}
}

// Register signs a teacher up against the pre-registration allow-list.
// The matched entry is consumed; a second signup with the same register
// number fails.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	prt, err := svc.repo.GetUnregisteredPreRegistered(ctx, nu.Name, nu.RegisterNumber)
	if err != nil {
		if err == ErrPreRegNotFound {
			return User{}, core.NewValidationError(ErrInvalidTeacherInfo)
		}
		return User{}, err
	}

	if _, err = svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if err != ErrNotFound {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:           nu.Name,
		Email:          nu.Email,
		RegisterNumber: nu.RegisterNumber,
		Role:           RoleTeacher,
		IsApproved:     false,
		Status:         StatusActive,
		CanEnterMarks:  false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	if usr, err = svc.repo.CreateUser(ctx, usr); err != nil {
		return User{}, err
	}

	prt.IsRegistered = true
	if _, err = svc.repo.UpdatePreRegistered(ctx, prt); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) GetForLogin(ctx context.Context, email, registerNumber string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if registerNumber = core.CleanString(registerNumber); registerNumber != "" {
		return svc.repo.GetUserByEmailAndRegisterNumber(ctx, email, registerNumber)
	}
	return svc.repo.GetUserByEmail(ctx, email)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// CreateAdmin updates or creates an approved, active admin account.
func (svc *service) CreateAdmin(ctx context.Context, name, email, pwd string) (User, error) {
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != ErrNotFound {
			return User{}, err
		}
		usr = User{Name: name, Email: email, CreatedAt: now}
	}
	usr.Role = RoleAdmin
	usr.IsApproved = true
	usr.Status = StatusActive
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	if usr.ID == "" {
		return svc.repo.CreateUser(ctx, usr)
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) QueryTeachers(ctx context.Context) ([]User, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *service) QueryPendingTeachers(ctx context.Context) ([]User, error) {
	return svc.repo.QueryPendingTeachers(ctx)
}

// Approve approves a pending teacher account and grants initial mark-entry
// permission in the same transition.
func (svc *service) Approve(ctx context.Context, adminID, teacherID string) (User, error) {
	usr, err := svc.getTeacher(ctx, teacherID)
	if err != nil {
		return User{}, err
	}

	usr.IsApproved = true
	usr.CanEnterMarks = true
	usr.Status = StatusActive
	usr.MarkEntryGrant = &MarkEntryGrant{
		GrantedBy: adminID,
		GrantedAt: time.Now().UTC(),
		Reason:    approvalGrantReason,
	}
	usr.UpdatedAt = time.Now().UTC()

	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, err
	}
	svc.sendApprovalMail(usr)
	return usr, nil
}

// Reject removes a pending teacher account entirely.
func (svc *service) Reject(ctx context.Context, teacherID string) error {
	if _, err := svc.getTeacher(ctx, teacherID); err != nil {
		return err
	}
	return svc.repo.DeleteUser(ctx, teacherID)
}

func (svc *service) GrantMarkEntry(ctx context.Context, adminID, teacherID, reason string) (User, error) {
	if reason = core.CleanString(reason); reason == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "reason", Error: "this field is required"})
	}

	usr, err := svc.getTeacher(ctx, teacherID)
	if err != nil {
		return User{}, err
	}
	if !usr.IsApproved {
		// granting mark entry to an unapproved account would break the
		// CanEnterMarks => IsApproved invariant
		return User{}, core.NewValidationError(ErrNotApproved)
	}

	usr.CanEnterMarks = true
	usr.MarkEntryGrant = &MarkEntryGrant{
		GrantedBy: adminID,
		GrantedAt: time.Now().UTC(),
		Reason:    reason,
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) RevokeMarkEntry(ctx context.Context, teacherID string) (User, error) {
	usr, err := svc.getTeacher(ctx, teacherID)
	if err != nil {
		return User{}, err
	}
	usr.CanEnterMarks = false // grant history is kept
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetStatus(ctx context.Context, teacherID, status string) (User, error) {
	if status != StatusActive && status != StatusInactive {
		return User{}, core.NewValidationError(ErrInvalidStatus, core.FieldError{Field: "status", Error: ErrInvalidStatus.Error()})
	}
	usr, err := svc.getTeacher(ctx, teacherID)
	if err != nil {
		return User{}, err
	}
	usr.Status = status
	usr.enforceMarkEntryInvariant()
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete permanently removes an account. Marks authored by the account are
// retained with their teacher reference anonymized at the storage layer.
func (svc *service) Delete(ctx context.Context, teacherID string) error {
	return svc.repo.DeleteUser(ctx, teacherID)
}

func (svc *service) PreRegister(ctx context.Context, np NewPreRegistration) (PreRegisteredTeacher, error) {
	if err := np.Validate(svc.validate); err != nil {
		return PreRegisteredTeacher{}, err
	}
	prt := PreRegisteredTeacher{
		Name:           np.Name,
		RegisterNumber: np.RegisterNumber,
		CreatedAt:      time.Now().UTC(),
	}
	prt, err := svc.repo.CreatePreRegistered(ctx, prt)
	if err == ErrRegisterNumExists {
		return PreRegisteredTeacher{}, core.NewValidationError(err, core.FieldError{Field: "register_number", Error: err.Error()})
	}
	return prt, err
}

func (svc *service) QueryPreRegistered(ctx context.Context) ([]PreRegisteredTeacher, error) {
	return svc.repo.QueryPreRegistered(ctx)
}

func (svc *service) DeletePreRegistered(ctx context.Context, id string) error {
	return svc.repo.DeletePreRegistered(ctx, id)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// getTeacher finds a teacher account; any other role fails validation.
func (svc *service) getTeacher(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !usr.IsTeacher() {
		return User{}, core.NewValidationError(ErrNotTeacher)
	}
	return usr, nil
}

func (svc *service) sendApprovalMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Account approved",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour teacher account has been approved and mark entry access has been granted.\n"+
				"You can now sign in at %s and start entering marks.\n", usr.Name, svc.conf.FrontendBaseURL),
	})
}

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Password reset",
		Body: fmt.Sprintf(
			"Hi %s,\n\nFollow this link to reset your password:\n%s/password-reset?uid=%s&token=%s\n",
			usr.Name, svc.conf.FrontendBaseURL, EncodeUID(usr), makeToken(usr)),
	})
}
