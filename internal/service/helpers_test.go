package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nomocars/nomo-api/internal/adapters/devauth"
	"github.com/nomocars/nomo-api/internal/adapters/memstore"
	"github.com/nomocars/nomo-api/internal/domain/model"
	mockauth "github.com/nomocars/nomo-api/internal/mocks/auth"
	"github.com/nomocars/nomo-api/internal/ports"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// fixture wires the in-memory stores and recording doubles every service test uses.
type fixture struct {
	drivers *memstore.DriverRepo
	admins  *memstore.AdminRepo
	assets  *memstore.AssetStore
	drafts  *memstore.DraftStore
	ledger  *memstore.OrphanRepo
	creds   *devauth.CredentialStore
	mailer  *mockauth.RecordingMailer
	events  *mockauth.RecordingPublisher
	fx      Effects
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	creds, err := devauth.NewCredentialStore(devauth.StoreConfig{
		Secret:      "test-secret",
		LinkBaseURL: "http://localhost:8080",
		BcryptCost:  bcrypt.MinCost,
	})
	require.NoError(t, err)
	f := &fixture{
		drivers: memstore.NewDriverRepo(),
		admins:  memstore.NewAdminRepo(),
		assets:  memstore.NewAssetStore("https://assets.test"),
		drafts:  memstore.NewDraftStore(30 * 24 * time.Hour),
		ledger:  memstore.NewOrphanRepo(),
		creds:   creds,
		mailer:  &mockauth.RecordingMailer{},
		events:  &mockauth.RecordingPublisher{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.fx = Effects{
		Mailer:  f.mailer,
		Events:  f.events,
		Orphans: NewOrphanRecorder(OrphanRecorderOptions{Repo: f.ledger, Logger: logger}),
		Logger:  logger,
		Clock:   func() time.Time { return testNow },
	}
	return f
}

func (f *fixture) registration() *RegistrationService {
	return NewRegistrationService(RegistrationServiceOptions{
		Stores:      RegistrationStores{Drivers: f.drivers, Assets: f.assets, Drafts: f.drafts},
		Credentials: f.creds,
		Effects:     f.fx,
	})
}

func (f *fixture) sessions(idp ports.IdentityProvider) *SessionService {
	return NewSessionService(SessionServiceOptions{
		Stores:      SessionStores{Drivers: f.drivers, Assets: f.assets},
		Credentials: f.creds,
		Identity:    idp,
		Effects:     f.fx,
	})
}

func (f *fixture) fleet() *FleetService {
	return NewFleetService(FleetServiceOptions{Drivers: f.drivers, Assets: f.assets, Effects: f.fx})
}

func (f *fixture) admin() *AdminService {
	return NewAdminService(AdminServiceOptions{
		Stores:      AdminStores{Admins: f.admins, Drivers: f.drivers, Assets: f.assets},
		Credentials: f.creds,
		Effects:     f.fx,
	})
}

func (f *fixture) openOrphans(t *testing.T) []model.Orphan {
	t.Helper()
	out, err := f.ledger.List(context.Background(), model.OrphanListOptions{})
	require.NoError(t, err)
	return out
}

// seedDriver creates a verified email credential and its profile.
func (f *fixture) seedDriver(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()
	id, err := f.creds.CreateCredential(ctx, ports.NewCredential{Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, f.creds.MarkEmailVerified(email))
	require.NoError(t, f.drivers.Create(ctx, &model.DriverProfile{
		ID:         id.UserID,
		FirstName:  "Ada",
		LastName:   "Obi",
		Email:      email,
		Phone:      "+2348012345678",
		Location:   "Lagos",
		AuthMethod: model.AuthMethodEmail,
		AssetPaths: []string{model.ProfileImagePath(id.UserID), model.IDImagePath(id.UserID)},
		Version:    1,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}))
	return id.UserID
}

func image(content string) Upload {
	return Upload{Body: strings.NewReader(content), Size: int64(len(content)), ContentType: "image/jpeg"}
}

func validRegistration() model.RegistrationRequest {
	return model.RegistrationRequest{
		FirstName:       "Ada",
		LastName:        "Obi",
		Email:           "Ada.Obi@example.com",
		Password:        "abcd1234",
		ConfirmPassword: "abcd1234",
		Phone:           "+2348012345678",
		ValidIDNumber:   "NIN-0001",
		Location:        "Lagos",
	}
}
