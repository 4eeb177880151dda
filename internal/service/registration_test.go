package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/mocks"
	mockauth "github.com/nomocars/nomo-api/internal/mocks/auth"
	"github.com/nomocars/nomo-api/internal/ports"
)

func TestNewRegistrationService_RequiredDependencies(t *testing.T) {
	f := newFixture(t)
	assert.Panics(t, func() {
		NewRegistrationService(RegistrationServiceOptions{Credentials: f.creds})
	})
	assert.Panics(t, func() {
		NewRegistrationService(RegistrationServiceOptions{
			Stores: RegistrationStores{Drivers: f.drivers, Assets: f.assets},
		})
	})
}

func TestRegistrationService_Register_Email(t *testing.T) {
	f := newFixture(t)
	svc := f.registration()
	ctx := context.Background()

	draftID, err := svc.SaveDraft(ctx, "", validRegistration())
	require.NoError(t, err)

	res, err := svc.Register(ctx, RegisterInput{
		Request:      validRegistration(),
		ProfileImage: image("face"),
		IDImage:      image("card"),
		DraftID:      draftID,
	})
	require.NoError(t, err)
	assert.Equal(t, MsgRegistered, res.Message)
	assert.Equal(t, "/login", res.RedirectTo)
	assert.Equal(t, 2500, res.RedirectAfterMs)

	p, err := f.drivers.GetByID(ctx, res.DriverID)
	require.NoError(t, err)
	assert.False(t, p.Verified)
	assert.Equal(t, model.AuthMethodEmail, p.AuthMethod)
	assert.Equal(t, "ada.obi@example.com", p.Email)
	assert.Equal(t, "+2348012345678", p.Phone)
	assert.Equal(t, int64(1), p.Version)
	assert.Empty(t, p.VehicleLog)
	assert.Equal(t, []string{model.ProfileImagePath(p.ID), model.IDImagePath(p.ID)}, p.AssetPaths)
	assert.Equal(t, "https://assets.test/"+model.ProfileImagePath(p.ID), p.ProfileImageURL)
	assert.True(t, f.assets.Has(model.IDImagePath(p.ID)))

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada.obi@example.com", sent[0].To)
	assert.Contains(t, sent[0].TextBody, "/dev/verify-email")

	assert.Equal(t, []string{ports.SubjectDriverRegistered}, f.events.Subjects())

	_, err = svc.GetDraft(ctx, draftID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.openOrphans(t))
}

func TestRegistrationService_Register_ValidationHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *RegisterInput)
		field string
	}{
		{"weak password", func(in *RegisterInput) {
			in.Request.Password, in.Request.ConfirmPassword = "abcdefgh", "abcdefgh"
		}, "password"},
		{"password mismatch", func(in *RegisterInput) { in.Request.ConfirmPassword = "abcd12345" }, "confirmPassword"},
		{"short phone", func(in *RegisterInput) { in.Request.Phone = "12345" }, "phone"},
		{"missing last name", func(in *RegisterInput) { in.Request.LastName = " " }, "lastName"},
		{"missing profile image", func(in *RegisterInput) { in.ProfileImage = Upload{} }, "profileImage"},
		{"non-image id", func(in *RegisterInput) { in.IDImage.ContentType = "application/pdf" }, "idImage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			creds := &mockauth.MockCredentialStore{Inner: f.creds}
			svc := NewRegistrationService(RegistrationServiceOptions{
				Stores:      RegistrationStores{Drivers: f.drivers, Assets: f.assets},
				Credentials: creds,
				Effects:     f.fx,
			})
			in := RegisterInput{Request: validRegistration(), ProfileImage: image("a"), IDImage: image("b")}
			tt.edit(&in)

			_, err := svc.Register(context.Background(), in)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
			assert.Empty(t, creds.Calls())
			assert.Empty(t, f.mailer.Sent())
		})
	}
}

func TestRegistrationService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	svc := f.registration()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Request: validRegistration(), ProfileImage: image("a"), IDImage: image("b")})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Request: validRegistration(), ProfileImage: image("a"), IDImage: image("b")})
	require.ErrorIs(t, err, ErrEmailTaken)
	assert.True(t, apperrors.IsConflict(err))

	all, err := f.drivers.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Empty(t, f.openOrphans(t))
}

func TestRegistrationService_Register_UploadFailureRecordsOrphans(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	assets := mocks.NewMockAssetStore(ctrl)
	assets.EXPECT().Put(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p core.PutAssetParams) (model.Asset, error) {
			if strings.HasSuffix(p.Path, "/idImage.jpg") {
				return model.Asset{}, errors.New("bucket unavailable")
			}
			return model.Asset{Path: p.Path, URL: "https://assets.test/" + p.Path}, nil
		}).Times(2)

	svc := NewRegistrationService(RegistrationServiceOptions{
		Stores:      RegistrationStores{Drivers: f.drivers, Assets: assets},
		Credentials: f.creds,
		Effects:     f.fx,
	})
	_, err := svc.Register(context.Background(), RegisterInput{
		Request: validRegistration(), ProfileImage: image("a"), IDImage: image("b"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")

	orphans := f.openOrphans(t)
	require.Len(t, orphans, 2)
	kinds := map[model.OrphanKind]string{}
	for _, o := range orphans {
		kinds[o.Kind] = o.Ref
		assert.Equal(t, "register", o.Operation)
	}
	uid := kinds[model.OrphanCredential]
	require.NotEmpty(t, uid)
	assert.Equal(t, model.ProfileImagePath(uid), kinds[model.OrphanAsset])
	assert.True(t, f.creds.Has(uid))
}

func TestRegistrationService_Register_ProfileWriteFailureRecordsOrphans(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	drivers := mocks.NewMockDriverRepository(ctrl)
	drivers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(apperrors.Internal("firestore down"))

	svc := NewRegistrationService(RegistrationServiceOptions{
		Stores:      RegistrationStores{Drivers: drivers, Assets: f.assets},
		Credentials: f.creds,
		Effects:     f.fx,
	})
	_, err := svc.Register(context.Background(), RegisterInput{
		Request: validRegistration(), ProfileImage: image("a"), IDImage: image("b"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
	assert.Len(t, f.openOrphans(t), 3)
}

func TestRegistrationService_Register_DuplicateSubmissionRecordsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	drivers := mocks.NewMockDriverRepository(ctrl)
	drivers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(apperrors.Conflict("driver already exists"))

	svc := NewRegistrationService(RegistrationServiceOptions{
		Stores:      RegistrationStores{Drivers: drivers, Assets: f.assets},
		Credentials: f.creds,
		Effects:     f.fx,
	})
	_, err := svc.Register(context.Background(), RegisterInput{
		Request: validRegistration(), ProfileImage: image("a"), IDImage: image("b"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, f.openOrphans(t))
}

func TestRegistrationService_Register_Google(t *testing.T) {
	f := newFixture(t)
	svc := f.registration()
	ctx := context.Background()

	signed, err := f.creds.SignInWithAssertion(ctx, ports.FederatedAssertion{
		ProviderID: "google.com", IDToken: "g", Email: "Rider@Gmail.com", FirstName: "Tunde", LastName: "Bello",
	})
	require.NoError(t, err)

	req := validRegistration()
	req.Email, req.Password, req.ConfirmPassword = "", "", ""
	res, err := svc.Register(ctx, RegisterInput{
		Request: req, GoogleIDToken: signed.IDToken, ProfileImage: image("a"), IDImage: image("b"),
	})
	require.NoError(t, err)
	assert.Equal(t, signed.Identity.UserID, res.DriverID)

	p, err := f.drivers.GetByID(ctx, res.DriverID)
	require.NoError(t, err)
	assert.Equal(t, model.AuthMethodGoogle, p.AuthMethod)
	assert.Equal(t, "rider@gmail.com", p.Email)
	assert.Empty(t, f.mailer.Sent())

	_, err = svc.Register(ctx, RegisterInput{
		Request: req, GoogleIDToken: signed.IDToken, ProfileImage: image("a"), IDImage: image("b"),
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = svc.Register(ctx, RegisterInput{
		Request: req, GoogleIDToken: "forged", ProfileImage: image("a"), IDImage: image("b"),
	})
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestRegistrationService_MailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mailer.Err = errors.New("smtp down")
	f.fx.Mailer = f.mailer
	_, err := f.registration().Register(context.Background(), RegisterInput{
		Request: validRegistration(), ProfileImage: image("a"), IDImage: image("b"),
	})
	require.NoError(t, err)
}

func TestRegistrationService_Drafts(t *testing.T) {
	f := newFixture(t)
	svc := f.registration()
	ctx := context.Background()

	id, err := svc.SaveDraft(ctx, "", validRegistration())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	d, err := svc.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, testNow, d.UpdatedAt)

	req := validRegistration()
	req.Location = "Abuja"
	same, err := svc.SaveDraft(ctx, id, req)
	require.NoError(t, err)
	assert.Equal(t, id, same)
	d, err = svc.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Abuja", d.Location)

	require.NoError(t, svc.DeleteDraft(ctx, id))
	require.NoError(t, svc.DeleteDraft(ctx, id))
	_, err = svc.GetDraft(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.GetDraft(ctx, "")
	assert.True(t, apperrors.IsNotFound(err))
}
