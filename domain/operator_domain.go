package domain

import (
	"errors"
)

var (
	MessageSuccessLogin  = "operator logged in"
	MessageSuccessLogout = "operator logged out"

	MessageFailedLogin  = "failed to log in operator"
	MessageFailedLogout = "failed to log out operator"

	ErrOperatorNotFound  = errors.New("operator not found")
	ErrOperatorPassword  = errors.New("operator password does not match")
	ErrPasswordRequired  = errors.New("operator password required")
	ErrOperatorCodeEmpty = errors.New("operator code is empty")
)

type (
	Operator struct {
		ID           string `json:"id"`
		DisplayName  string `json:"display_name"`
		PasswordHash string `json:"-"`
	}

	LoginRequest struct {
		Code     string `json:"code" form:"code" validate:"omitempty,max=64,scancode"`
		Password string `json:"password" form:"password" validate:"omitempty,max=128"`
	}

	LoginResponse struct {
		Token       string `json:"token"`
		SessionID   string `json:"session_id"`
		OperatorID  string `json:"operator_id"`
		DisplayName string `json:"display_name"`
	}

	CreateOperatorRequest struct {
		Code     string `json:"code" validate:"required,max=64"`
		Name     string `json:"name" validate:"required,max=128"`
		Password string `json:"password" validate:"omitempty,min=4"`
	}
)
