package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/ports"
)

// BookingServiceOptions groups dependencies for BookingService.
type BookingServiceOptions struct {
	Drivers core.DriverRepository // required
	Effects Effects
}

// BookingService lists bookable vehicles and takes rider reviews.
type BookingService struct {
	drivers core.DriverRepository
	fx      Effects
}

// NewBookingService constructs a BookingService.
func NewBookingService(opts BookingServiceOptions) *BookingService {
	if opts.Drivers == nil {
		panic("BookingService requires Drivers")
	}
	fx := opts.Effects
	fx.Logger = fx.logger().With("component", "booking")
	return &BookingService{drivers: opts.Drivers, fx: fx}
}

// Listings returns one entry per vehicle of every verified driver.
func (s *BookingService) Listings(ctx context.Context) ([]model.Listing, error) {
	drivers, err := s.drivers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	out := []model.Listing{}
	for i := range drivers {
		if !drivers[i].Verified {
			continue
		}
		out = append(out, model.ListingsFor(&drivers[i])...)
	}
	return out, nil
}

// Filter applies the booking filter.
func (s *BookingService) Filter(listings []model.Listing, location, category string) []model.Listing {
	return model.FilterListings(listings, location, category)
}

// Search fetches the listings and filters them.
func (s *BookingService) Search(ctx context.Context, location, category string) ([]model.Listing, error) {
	all, err := s.Listings(ctx)
	if err != nil {
		return nil, err
	}
	return s.Filter(all, location, category), nil
}

// SubmitReview validates and appends a review to the driver's profile.
func (s *BookingService) SubmitReview(ctx context.Context, req model.ReviewRequest) (*model.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	review := model.Review{
		ID:             uuid.NewString(),
		CommenterName:  req.CommenterName,
		CommenterEmail: req.CommenterEmail,
		Comment:        req.Comment,
		CreatedAt:      s.fx.now(),
	}
	if err := s.drivers.AppendReview(ctx, req.DriverID, review); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound(MsgDriverNotFound)
		}
		return nil, fmt.Errorf("append review: %w", err)
	}
	s.fx.publish(ctx, ports.SubjectReviewCreated, ReviewEvent{DriverID: req.DriverID, ReviewID: review.ID})
	return &review, nil
}
