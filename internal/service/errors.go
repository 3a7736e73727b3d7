package service

import (
	"net/http"

	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// Auth flow failures. Callers match them with errors.Is.
var (
	ErrAlreadyRegistered   = apperrors.NewDomainError("ALREADY_REGISTERED", "User already exists and is verified.", http.StatusConflict, nil)
	ErrUserNotFound        = apperrors.NewDomainError("USER_NOT_FOUND", "User not found.", http.StatusNotFound, nil)
	ErrAlreadyVerified     = apperrors.NewDomainError("ALREADY_VERIFIED", "User is already verified.", http.StatusConflict, nil)
	ErrNoPendingOTP        = apperrors.NewDomainError("NO_PENDING_OTP", "No OTP found for this user.", http.StatusBadRequest, nil)
	ErrOTPExpired          = apperrors.NewDomainError("OTP_EXPIRED", "OTP has expired.", http.StatusBadRequest, nil)
	ErrInvalidOTP          = apperrors.NewDomainError("INVALID_OTP", "Invalid OTP.", http.StatusBadRequest, nil)
	ErrInvalidCredentials  = apperrors.NewDomainError("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized, nil)
	ErrEmailNotVerified    = apperrors.NewDomainError("EMAIL_NOT_VERIFIED", "Please verify your email before logging in.", http.StatusForbidden, nil)
	ErrEmailDeliveryFailed = apperrors.NewDomainError("EMAIL_DELIVERY_FAILED", "Could not send verification email.", http.StatusInternalServerError, nil)
	ErrOTPCooldown         = apperrors.NewDomainError("RATE_LIMITED", "A code was sent recently. Please wait before requesting another.", http.StatusTooManyRequests, nil)
)
