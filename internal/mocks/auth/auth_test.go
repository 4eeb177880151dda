package auth

import (
	"context"
	"errors"
	"testing"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockIdentityProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockIdentityProvider()
	ctx := context.Background()

	authURL, state, nonce, err := provider.Begin(ctx, ports.BeginInput{})
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, ports.BeginInput{})
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockIdentityProvider_Exchange(t *testing.T) {
	provider := NewMockIdentityProvider()
	a, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
	require.NoError(t, err)
	assert.Equal(t, "mock.driver@gmail.com", a.Email)

	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{})
	assert.Error(t, err)

	provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (ports.FederatedAssertion, error) {
		return ports.FederatedAssertion{}, errors.New("denied")
	}
	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
	assert.EqualError(t, err, "denied")
}

func TestMockCredentialStore_OverrideAndRecord(t *testing.T) {
	m := &MockCredentialStore{
		VerifySessionFunc: func(_ context.Context, token string) (domainauth.Identity, error) {
			return domainauth.Identity{UserID: "u-" + token}, nil
		},
	}
	id, err := m.VerifySession(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)

	_, err = m.MintSession(context.Background(), "x", 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, []string{"VerifySession", "MintSession"}, m.Calls())
	assert.True(t, m.Called("MintSession"))
	assert.False(t, m.Called("DeleteCredential"))
}

func TestRecordingDoubles(t *testing.T) {
	mailer := &RecordingMailer{}
	require.NoError(t, mailer.Send(context.Background(), ports.Mail{To: "a@b.co"}))
	assert.Len(t, mailer.Sent(), 1)

	pub := &RecordingPublisher{}
	require.NoError(t, pub.Publish(context.Background(), ports.SubjectDriverDeleted, "u1"))
	assert.Equal(t, []string{ports.SubjectDriverDeleted}, pub.Subjects())

	pub.Err = errors.New("down")
	assert.Error(t, pub.Publish(context.Background(), "x", nil))
}
