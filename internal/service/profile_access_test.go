package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
)

func TestProfileAccessService_Open(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	other := f.seedDriver(t, "bola@example.com", "abcd1234")
	svc := NewProfileAccessService(ProfileAccessServiceOptions{Drivers: f.drivers, Logger: f.fx.Logger})
	ctx := context.Background()
	own := &domainauth.Session{UserID: uid, Role: domainauth.RoleDriver}

	p, err := svc.Open(ctx, own, domainauth.EncodeProfileID(uid))
	require.NoError(t, err)
	assert.Equal(t, uid, p.ID)
	assert.False(t, p.Verified)

	tests := []struct {
		name     string
		session  *domainauth.Session
		encoded  string
		reason   string
		redirect string
	}{
		{"no session", nil, domainauth.EncodeProfileID(uid), "unauthenticated", RedirectLogin},
		{"other driver", own, domainauth.EncodeProfileID(other), "mismatch", RedirectUnauthorized},
		{"raw uid", own, "%%%", "undecodable", RedirectUnauthorized},
		{"deleted profile", &domainauth.Session{UserID: "gone", Role: domainauth.RoleDriver}, domainauth.EncodeProfileID("gone"), "no_profile", RedirectLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Open(ctx, tt.session, tt.encoded)
			var denied *AccessDeniedError
			require.True(t, errors.As(err, &denied))
			assert.Equal(t, tt.reason, denied.Reason)
			assert.Equal(t, tt.redirect, denied.RedirectTo)
		})
	}
}
