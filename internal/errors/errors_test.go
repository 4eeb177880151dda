package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "driver not found"},
			want: "driver not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to save profile",
				Cause:   errors.New("firestore unavailable"),
			},
			want: "failed to save profile: firestore unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{Code: ErrCodeInternal, Message: "wrapped error", Cause: cause}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
		msg  string
	}{
		{"not found", NotFound("missing"), ErrCodeNotFound, "missing"},
		{"not foundf", NotFoundf("driver %s not found", "u1"), ErrCodeNotFound, "driver u1 not found"},
		{"conflict", Conflict("exists"), ErrCodeConflict, "exists"},
		{"conflictf", Conflictf("version %d is stale", 3), ErrCodeConflict, "version 3 is stale"},
		{"validation", Validation("bad"), ErrCodeValidation, "bad"},
		{"validationf", Validationf("max %d", 5), ErrCodeValidation, "max 5"},
		{"unauthorized", Unauthorized("nope"), ErrCodeUnauthorized, "nope"},
		{"forbidden", Forbidden("denied"), ErrCodeForbidden, "denied"},
		{"internal", Internal("boom"), ErrCodeInternal, "boom"},
		{"internalf", Internalf("boom %s", "x"), ErrCodeInternal, "boom x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Message != tt.msg {
				t.Errorf("message = %q, want %q", tt.err.Message, tt.msg)
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("phone", "Phone number must be 10 digits.")
	if err.Code != ErrCodeValidation || err.Field != "phone" {
		t.Errorf("unexpected error: %+v", err)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(cause, ErrCodeInternal, "outer")
	if !errors.Is(err, cause) {
		t.Errorf("Wrap() lost cause")
	}
	if err.Code != ErrCodeInternal {
		t.Errorf("Wrap() code = %v", err.Code)
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("Wrap(nil) should be nil")
	}
	if got := Wrapf(cause, ErrCodeConflict, "op %d", 7).Message; got != "op 7" {
		t.Errorf("Wrapf() message = %q", got)
	}
}

func TestPredicates_ThroughWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", fmt.Errorf("get driver: %w", NotFound("x")), IsNotFound},
		{"conflict", fmt.Errorf("replace vehicles: %w", Conflict("x")), IsConflict},
		{"validation", fmt.Errorf("register: %w", Validation("x")), IsValidation},
		{"unauthorized", fmt.Errorf("login: %w", Unauthorized("x")), IsUnauthorized},
		{"forbidden", fmt.Errorf("admin: %w", Forbidden("x")), IsForbidden},
		{"internal", fmt.Errorf("x: %w", Internal("x")), IsInternal},
		{"timeout", &AppError{Code: ErrCodeTimeout}, IsTimeout},
		{"canceled", &AppError{Code: ErrCodeCanceled}, IsCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate did not match %v", tt.err)
			}
			if tt.check(errors.New("plain")) {
				t.Errorf("predicate matched a plain error")
			}
		})
	}
}

func TestGetCodeAndField(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ValidationField("email", "Invalid email."))
	if GetCode(err) != ErrCodeValidation {
		t.Errorf("GetCode() = %v", GetCode(err))
	}
	if GetField(err) != "email" {
		t.Errorf("GetField() = %v", GetField(err))
	}
	if GetCode(errors.New("x")) != "" || GetField(errors.New("x")) != "" {
		t.Errorf("plain errors have no code or field")
	}
}

func TestPublicMessage(t *testing.T) {
	err := fmt.Errorf("login: %w", Unauthorized("Invalid email or password."))
	if got := PublicMessage(err, "fallback"); got != "Invalid email or password." {
		t.Errorf("PublicMessage() = %q", got)
	}
	if got := PublicMessage(errors.New("secret detail"), "fallback"); got != "fallback" {
		t.Errorf("PublicMessage() = %q", got)
	}
}
