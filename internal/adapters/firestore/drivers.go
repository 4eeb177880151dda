// Package firestore implements the profile store on Cloud Firestore.
// Driver profiles live in the "drivers" collection and admin flags in "admins",
// both keyed by credential store uid.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	driversCollection = "drivers"
	adminsCollection  = "admins"
)

var _ core.DriverRepository = (*DriverRepo)(nil)

// DriverRepo stores driver profiles as Firestore documents.
type DriverRepo struct {
	client *firestore.Client
}

// NewDriverRepo creates a DriverRepo on client.
func NewDriverRepo(client *firestore.Client) *DriverRepo {
	return &DriverRepo{client: client}
}

func (r *DriverRepo) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(driversCollection).Doc(id)
}

func (r *DriverRepo) Create(ctx context.Context, profile *model.DriverProfile) error {
	if profile.ID == "" {
		return apperrors.ValidationField("id", "driver id is required")
	}
	if _, err := r.doc(profile.ID).Create(ctx, profile); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return apperrors.Conflictf("driver %s already exists", profile.ID)
		}
		return fmt.Errorf("create driver document: %w", mapErr(err))
	}
	return nil
}

func (r *DriverRepo) GetByID(ctx context.Context, id string) (*model.DriverProfile, error) {
	if id == "" {
		return nil, apperrors.NotFound("driver not found")
	}
	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get driver %s: %w", id, mapErr(err))
	}
	return decodeDriver(snap)
}

func (r *DriverRepo) List(ctx context.Context) ([]model.DriverProfile, error) {
	iter := r.client.Collection(driversCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []model.DriverProfile
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate drivers: %w", mapErr(err))
		}
		p, err := decodeDriver(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *DriverRepo) SetVerified(ctx context.Context, params core.SetVerifiedParams) (*model.DriverProfile, error) {
	ref := r.doc(params.DriverID)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "verified", Value: params.Verified},
		{Path: "updatedAt", Value: params.At},
	})
	if err != nil {
		return nil, fmt.Errorf("set verified on %s: %w", params.DriverID, mapErr(err))
	}
	return r.GetByID(ctx, params.DriverID)
}

// ReplaceVehicles writes the vehicle log inside a transaction that checks and
// bumps the document version, so concurrent writers cannot overwrite each other.
func (r *DriverRepo) ReplaceVehicles(ctx context.Context, params core.ReplaceVehiclesParams) (*model.DriverProfile, error) {
	if len(params.Vehicles) > model.MaxVehicles {
		return nil, apperrors.Validation(model.MsgVehicleLimit)
	}
	ref := r.doc(params.DriverID)
	var updated *model.DriverProfile
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return mapErr(err)
		}
		current, err := decodeDriver(snap)
		if err != nil {
			return err
		}
		if current.Version != params.ExpectedVersion {
			return apperrors.Conflict(model.MsgStaleVehicleWrite)
		}
		vehicles := params.Vehicles
		if vehicles == nil {
			vehicles = []model.Vehicle{}
		}
		updates := []firestore.Update{
			{Path: "vehicleLog", Value: vehicles},
			{Path: "version", Value: current.Version + 1},
			{Path: "updatedAt", Value: params.At},
		}
		current.VehicleLog = vehicles
		if params.AssetPaths != nil {
			updates = append(updates, firestore.Update{Path: "assetPaths", Value: params.AssetPaths})
			current.AssetPaths = params.AssetPaths
		}
		current.Version++
		current.UpdatedAt = params.At
		updated = current
		return tx.Update(ref, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("replace vehicles for %s: %w", params.DriverID, err)
	}
	return updated, nil
}

func (r *DriverRepo) AppendReview(ctx context.Context, driverID string, review model.Review) error {
	_, err := r.doc(driverID).Update(ctx, []firestore.Update{
		{Path: "reviews", Value: firestore.ArrayUnion(review)},
	})
	if err != nil {
		return fmt.Errorf("append review to %s: %w", driverID, mapErr(err))
	}
	return nil
}

func (r *DriverRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.doc(id).Delete(ctx, firestore.Exists); err != nil {
		return fmt.Errorf("delete driver %s: %w", id, mapErr(err))
	}
	return nil
}

func decodeDriver(snap *firestore.DocumentSnapshot) (*model.DriverProfile, error) {
	var p model.DriverProfile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode driver %s: %w", snap.Ref.ID, err)
	}
	p.ID = snap.Ref.ID
	return &p, nil
}

// mapErr translates gRPC status codes into application errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "document not found")
	case codes.AlreadyExists:
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "document already exists")
	case codes.Aborted, codes.FailedPrecondition:
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "concurrent update, try again")
	case codes.DeadlineExceeded:
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "profile store timed out")
	case codes.Canceled:
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request was canceled")
	default:
		return err
	}
}

var _ core.AdminRepository = (*AdminRepo)(nil)

// AdminRepo stores admin flags in the "admins" collection.
type AdminRepo struct {
	client *firestore.Client
}

// NewAdminRepo creates an AdminRepo on client.
func NewAdminRepo(client *firestore.Client) *AdminRepo {
	return &AdminRepo{client: client}
}

func (r *AdminRepo) Get(ctx context.Context, uid string) (*model.AdminFlag, error) {
	if uid == "" {
		return nil, apperrors.NotFound("admin flag not found")
	}
	snap, err := r.client.Collection(adminsCollection).Doc(uid).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get admin flag %s: %w", uid, mapErr(err))
	}
	var f model.AdminFlag
	if err := snap.DataTo(&f); err != nil {
		return nil, fmt.Errorf("decode admin flag %s: %w", uid, err)
	}
	f.UserID = uid
	return &f, nil
}

func (r *AdminRepo) Grant(ctx context.Context, flag model.AdminFlag) error {
	if flag.UserID == "" {
		return apperrors.ValidationField("uid", "uid is required")
	}
	flag.IsAdmin = true
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = time.Now().UTC()
	}
	if _, err := r.client.Collection(adminsCollection).Doc(flag.UserID).Set(ctx, flag); err != nil {
		return fmt.Errorf("grant admin %s: %w", flag.UserID, mapErr(err))
	}
	return nil
}

func (r *AdminRepo) Revoke(ctx context.Context, uid string) error {
	if _, err := r.client.Collection(adminsCollection).Doc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("revoke admin %s: %w", uid, mapErr(err))
	}
	return nil
}

func (r *AdminRepo) List(ctx context.Context) ([]model.AdminFlag, error) {
	iter := r.client.Collection(adminsCollection).Documents(ctx)
	defer iter.Stop()

	var out []model.AdminFlag
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate admins: %w", mapErr(err))
		}
		var f model.AdminFlag
		if err := snap.DataTo(&f); err != nil {
			return nil, fmt.Errorf("decode admin flag %s: %w", snap.Ref.ID, err)
		}
		f.UserID = snap.Ref.ID
		out = append(out, f)
	}
	return out, nil
}
