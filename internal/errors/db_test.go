package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	if !IsTimeout(MapDBError(context.DeadlineExceeded)) {
		t.Errorf("deadline exceeded should map to timeout")
	}
	if !IsCanceled(MapDBError(fmt.Errorf("query: %w", context.Canceled))) {
		t.Errorf("canceled should map to canceled")
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	if err := MapDBError(pgx.ErrNoRows); !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name:      "column name metadata",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "ref"},
			wantField: "ref",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (kind, ref)=(asset, drivers/u1/idImage.jpg) already exists.`,
			},
			wantField: "kind, ref",
		},
		{
			name:      "no metadata",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			wantField: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("expected conflict, got %v", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_ValidationViolations(t *testing.T) {
	for _, code := range []string{pgerrcode.CheckViolation, pgerrcode.NotNullViolation} {
		err := MapDBError(&pgconn.PgError{Code: code, ColumnName: "kind"})
		if !IsValidation(err) || GetField(err) != "kind" {
			t.Errorf("code %s: got %v field %q", code, GetCode(err), GetField(err))
		}
	}
}

func TestMapDBError_OtherPgErrors(t *testing.T) {
	if err := MapDBError(&pgconn.PgError{Code: pgerrcode.UndefinedTable}); !IsInternal(err) {
		t.Errorf("undefined table should be internal")
	}
	if err := MapDBError(&pgconn.PgError{Code: pgerrcode.SerializationFailure}); !IsInternal(err) {
		t.Errorf("unknown pg error should be internal")
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	orig := errors.New("not a db error")
	if err := MapDBError(orig); !errors.Is(err, orig) || GetCode(err) != "" {
		t.Errorf("non-db errors must pass through unchanged")
	}
}
