package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/mocks"
	"github.com/nomocars/nomo-api/internal/ports"
)

func grantAdmin(t *testing.T, f *fixture, email, password string) string {
	t.Helper()
	ctx := context.Background()
	id, err := f.creds.CreateCredential(ctx, ports.NewCredential{Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, f.admins.Grant(ctx, model.AdminFlag{UserID: id.UserID, Email: email}))
	return id.UserID
}

func TestAdminService_CheckAccess(t *testing.T) {
	f := newFixture(t)
	adminID := grantAdmin(t, f, "boss@example.com", "abcd1234")
	driverID := f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.admin()
	ctx := context.Background()

	assert.ErrorIs(t, svc.CheckAccess(ctx, nil), ErrUnauthenticated)

	err := svc.CheckAccess(ctx, &domainauth.Session{UserID: driverID, Role: domainauth.RoleDriver})
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, MsgAccessDenied, apperrors.PublicMessage(err, ""))

	sess := &domainauth.Session{UserID: adminID, Role: domainauth.RoleDriver}
	require.NoError(t, svc.CheckAccess(ctx, sess))
	assert.Equal(t, domainauth.RoleAdmin, sess.Role)
}

func TestAdminService_FlagPresentButFalse(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	admins := mocks.NewMockAdminRepository(ctrl)
	admins.EXPECT().Get(gomock.Any(), "u1").Return(&model.AdminFlag{UserID: "u1", IsAdmin: false}, nil)
	admins.EXPECT().Get(gomock.Any(), "u2").Return(nil, errors.New("firestore unavailable"))

	svc := NewAdminService(AdminServiceOptions{
		Stores:      AdminStores{Admins: admins, Drivers: f.drivers, Assets: f.assets},
		Credentials: f.creds,
		Effects:     f.fx,
	})
	assert.ErrorIs(t, svc.CheckAccess(context.Background(), &domainauth.Session{UserID: "u1"}), ErrNotAdmin)

	err := svc.CheckAccess(context.Background(), &domainauth.Session{UserID: "u2"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAdmin)
}

func TestAdminService_Login(t *testing.T) {
	f := newFixture(t)
	adminID := grantAdmin(t, f, "boss@example.com", "abcd1234")
	f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.admin()
	ctx := context.Background()

	res, err := svc.Login(ctx, "boss@example.com", "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, adminID, res.UserID)
	assert.Equal(t, AdminDashboardPath, res.RedirectTo)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, "boss@example.com", "nope12345")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, err = svc.Login(ctx, "ada@example.com", "abcd1234")
	assert.ErrorIs(t, err, ErrNotAdmin)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestAdminService_ToggleVerifiedTwiceRestores(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	f.seedDriver(t, "bola@example.com", "abcd1234")
	svc := f.admin()
	ctx := context.Background()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DriverStats{Total: 2, Verified: 0, Pending: 2}, stats)

	p, err := svc.ToggleVerified(ctx, uid)
	require.NoError(t, err)
	assert.True(t, p.Verified)
	assert.Equal(t, testNow, p.UpdatedAt)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DriverStats{Total: 2, Verified: 1, Pending: 1}, dash.Stats)
	assert.Len(t, dash.Drivers, 2)

	p, err = svc.ToggleVerified(ctx, uid)
	require.NoError(t, err)
	assert.False(t, p.Verified)

	assert.Equal(t, []string{ports.SubjectVerificationChange, ports.SubjectVerificationChange}, f.events.Subjects())
}

func TestAdminService_SetVerifiedUnknown(t *testing.T) {
	svc := newFixture(t).admin()
	_, err := svc.SetVerified(context.Background(), "missing", true)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.ToggleVerified(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.SetVerified(context.Background(), " ", true)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAdminService_DeleteDriver(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	ctx := context.Background()
	added, err := f.fleet().AddVehicle(ctx, AddVehicleInput{
		DriverID: uid, Request: sedan(), Pictures: map[string]Upload{model.SlotCarFront: image("f")},
	})
	require.NoError(t, err)

	svc := f.admin()
	require.NoError(t, svc.DeleteDriver(ctx, uid))

	_, err = f.drivers.GetByID(ctx, uid)
	assert.True(t, apperrors.IsNotFound(err))
	attempts := f.assets.DeleteAttempts()
	assert.Contains(t, attempts, model.ProfileImagePath(uid))
	assert.Contains(t, attempts, model.IDImagePath(uid))
	assert.Contains(t, attempts, added.Vehicle.PicturePaths[0])
	assert.Contains(t, f.events.Subjects(), ports.SubjectDriverDeleted)

	assert.True(t, apperrors.IsNotFound(svc.DeleteDriver(ctx, uid)))
}

func TestAdminService_DeleteDriverSurvivesAssetErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	assets := mocks.NewMockAssetStore(ctrl)
	assets.EXPECT().Delete(gomock.Any(), model.ProfileImagePath(uid)).Return(errors.New("permission denied"))
	assets.EXPECT().Delete(gomock.Any(), model.IDImagePath(uid)).Return(nil)

	svc := NewAdminService(AdminServiceOptions{
		Stores:      AdminStores{Admins: f.admins, Drivers: f.drivers, Assets: assets},
		Credentials: f.creds,
		Effects:     f.fx,
	})
	require.NoError(t, svc.DeleteDriver(context.Background(), uid))

	_, err := f.drivers.GetByID(context.Background(), uid)
	assert.True(t, apperrors.IsNotFound(err))
	orphans := f.openOrphans(t)
	require.Len(t, orphans, 1)
	assert.Equal(t, model.ProfileImagePath(uid), orphans[0].Ref)
	assert.Equal(t, "admin_delete", orphans[0].Operation)
}
