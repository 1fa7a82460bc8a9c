package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"facility-booking-backend/internal/model"
)

// FacilityPatch lists the facility fields an admin edit may change. Nil fields are kept.
type FacilityPatch struct {
	Name        *string               `json:"name" binding:"omitempty,min=1,max=256"`
	Type        *model.FacilityType   `json:"type" binding:"omitempty,oneof=auditorium classroom field meeting_room lab"`
	Capacity    *int                  `json:"capacity" binding:"omitempty,gt=0"`
	Location    *string               `json:"location" binding:"omitempty,max=256"`
	Status      *model.FacilityStatus `json:"status" binding:"omitempty,oneof=available maintenance renovation closed"`
	Description *string               `json:"description"`
	Features    []string              `json:"features"`
	ImageURL    *string               `json:"imageUrl" binding:"omitempty,max=512"`
}

// Apply merges the patch into f.
func (p FacilityPatch) Apply(f *model.Facility) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Capacity != nil {
		f.Capacity = *p.Capacity
	}
	if p.Location != nil {
		f.Location = *p.Location
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Features != nil {
		f.Features = append([]string(nil), p.Features...)
	}
	if p.ImageURL != nil {
		f.ImageURL = *p.ImageURL
	}
}

// ListFacilities returns every facility ordered by id.
func (s *gormStore) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	if err := s.db.WithContext(ctx).Order("id").Find(&facilities).Error; err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}

// GetFacility returns the facility with the given id or ErrNotFound.
func (s *gormStore) GetFacility(ctx context.Context, id string) (*model.Facility, error) {
	var f model.Facility
	if err := s.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// UpdateFacility applies an admin edit to a facility.
func (s *gormStore) UpdateFacility(ctx context.Context, id string, patch FacilityPatch) (*model.Facility, error) {
	var f model.Facility
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&f, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		patch.Apply(&f)
		if err := tx.Save(&f).Error; err != nil {
			return fmt.Errorf("failed to update facility %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetUser returns the user with the given id or ErrNotFound.
func (s *gormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
