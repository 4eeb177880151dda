package service

import apperrors "github.com/nomocars/nomo-api/internal/errors"

// User-facing outcome messages.
const (
	MsgRegistered        = "Registration successful! You'll be verified within 72 hours."
	MsgInvalidLogin      = "Invalid email or password."
	MsgVerifyEmail       = "Please verify your email before logging in."
	MsgRegisterFirst     = "Please register first."
	MsgResetLinkSent     = "Password reset link sent! Check your email inbox."
	MsgAccessDenied      = "Access Denied: You are not an administrator"
	MsgLoggedIn          = "Logged in successfully"
	MsgNoToken           = "No token provided"
	MsgInvalidToken      = "Invalid token"
	MsgEmailTaken        = "This email is already registered. Please log in instead."
	MsgAlreadyRegistered = "This Google account is already registered. Please log in."
	MsgDriverNotFound    = "Driver not found."
	MsgAccountDeleted    = "Your account has been deleted."
)

// Sentinel errors. They are AppErrors so the HTTP layer maps them by code,
// and comparable with errors.Is after wrapping.
var (
	ErrInvalidLogin      = apperrors.Unauthorized(MsgInvalidLogin)
	ErrEmailNotVerified  = apperrors.Forbidden(MsgVerifyEmail)
	ErrNotRegistered     = apperrors.Forbidden(MsgRegisterFirst)
	ErrAlreadyRegistered = apperrors.Conflict(MsgAlreadyRegistered)
	ErrEmailTaken        = apperrors.Conflict(MsgEmailTaken)
	ErrNoToken           = apperrors.Validation(MsgNoToken)
	ErrInvalidToken      = apperrors.Unauthorized(MsgInvalidToken)
	ErrUnauthenticated   = apperrors.Unauthorized("Please log in.")
	ErrNotAdmin          = apperrors.Forbidden(MsgAccessDenied)
	ErrGoogleDisabled    = apperrors.Internal("Google sign-in is not configured.")
)
