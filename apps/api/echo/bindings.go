package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
)

type (
	LoginRequest struct {
		Email          string `json:"email" validate:"required,email"`
		Password       string `json:"password" validate:"required"`
		RegisterNumber string `json:"register_number"` // teachers only
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	GrantMarkEntryRequest struct {
		Reason string `json:"reason" validate:"required"`
	}

	UpdateStatusRequest struct {
		Status string `json:"status" validate:"required"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	lr.RegisterNumber = core.CleanString(lr.RegisterNumber)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (gr *GrantMarkEntryRequest) Validate(validate *validator.Validate) error {
	gr.Reason = core.CleanString(gr.Reason)
	return validate.Struct(gr)
}

func (ur *UpdateStatusRequest) Validate(validate *validator.Validate) error {
	ur.Status = core.CleanString(ur.Status, true /* lower */)
	return validate.Struct(ur)
}
