package auth

import "givehub-backend/internal/pkg/apperrors"

// Login failures. The two credential mismatches stay distinct for logs; handlers
// collapse them into one public message.
var (
	ErrEmailPasswordRequired = apperrors.Validation("Email and password are required")
	ErrInvalidEmail          = apperrors.New(apperrors.CodeUnauthorized, "no account with that email")
	ErrIncorrectPassword     = apperrors.New(apperrors.CodeUnauthorized, "password does not match")
	ErrNotAuthenticated      = apperrors.New(apperrors.CodeUnauthorized, "Not authenticated")
)
