package accounts

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("this email is already registered")
	ErrMomoNumberTaken    = errors.New("this momo number is already registered")
	ErrPasswordsDiffer    = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrNotVerified        = errors.New("account not verified, verify your phone first")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrOTPSendFailed      = errors.New("failed to send otp")
	ErrInvalidInput       = errors.New("invalid input")
)
