package service

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrGenerationFailed     = errors.New("image generation failed")
	ErrDuplicateTransaction = errors.New("transaction already submitted")
	ErrAuthFailed           = errors.New("invalid email or password")
	ErrAccessDenied         = errors.New("access denied")
	ErrAccountSuspended     = fmt.Errorf("%w: account suspended", ErrAccessDenied)
	ErrRechargeNotPending   = errors.New("recharge request is not pending")
	ErrNotFound             = errors.New("not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidInput         = errors.New("invalid request")
	ErrStorageDisabled      = errors.New("file storage is not configured")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
