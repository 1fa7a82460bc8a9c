package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"facility-booking-backend/internal/model"
)

// SeedFacilities is the initial facility directory.
var SeedFacilities = []model.Facility{
	{
		ID:          "f1",
		Name:        "Graha Widya Wisuda (GWW)",
		Type:        model.FacilityAuditorium,
		Capacity:    3000,
		Location:    "Kampus IPB Dramaga",
		Status:      model.FacilityAvailable,
		Description: "Main hall for graduations, seminars and large events.",
		Features:    []string{"AC", "Sound System", "Projector", "Stage", "Parking Area"},
	},
	{
		ID:          "f2",
		Name:        "Auditorium Toyib Hadiwijaya",
		Type:        model.FacilityAuditorium,
		Capacity:    400,
		Location:    "Fakultas Pertanian",
		Status:      model.FacilityMaintenance,
		Description: "Faculty auditorium for seminars and public lectures.",
		Features:    []string{"AC", "Sound System", "Projector"},
	},
	{
		ID:          "f3",
		Name:        "RK U1.01",
		Type:        model.FacilityClassroom,
		Capacity:    60,
		Location:    "Gedung Kuliah Umum",
		Status:      model.FacilityAvailable,
		Description: "Lecture room for classes and small meetings.",
		Features:    []string{"AC", "Projector", "Whiteboard"},
	},
	{
		ID:          "f4",
		Name:        "Gymnasium IPB",
		Type:        model.FacilityField,
		Capacity:    1000,
		Location:    "Kampus IPB Dramaga",
		Status:      model.FacilityRenovation,
		Description: "Indoor sports hall.",
		Features:    []string{"Basketball Court", "Tribune", "Locker Room"},
	},
	{
		ID:          "f5",
		Name:        "IPB International Convention Center (IICC)",
		Type:        model.FacilityMeetingRoom,
		Capacity:    200,
		Location:    "Botani Square, Bogor",
		Status:      model.FacilityAvailable,
		Description: "Convention rooms for conferences and workshops.",
		Features:    []string{"AC", "Sound System", "Projector", "Catering Area"},
	},
	{
		ID:          "f6",
		Name:        "Ruang Sidang Senat",
		Type:        model.FacilityMeetingRoom,
		Capacity:    50,
		Location:    "Gedung Andi Hakim Nasoetion",
		Status:      model.FacilityAvailable,
		Description: "Meeting room for senate sessions and formal meetings.",
		Features:    []string{"AC", "Conference Microphones", "Projector"},
	},
}

// SeedUsers is the initial set of accounts.
var SeedUsers = []model.User{
	{ID: "admin-1", Name: "Administrator Sarpras", Email: "admin@ipb.ac.id", Role: model.RoleAdmin},
	{ID: "user-mock-1", Name: "Mahasiswa Teladan", Email: "mahasiswa@apps.ipb.ac.id", Role: model.RoleStudent, NIM: "G64190001"},
}

// Seed inserts the initial facilities and users into empty tables.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Facility{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count facilities: %w", err)
		}
		if count == 0 {
			facilities := make([]model.Facility, len(SeedFacilities))
			copy(facilities, SeedFacilities)
			if err := tx.Create(&facilities).Error; err != nil {
				return fmt.Errorf("failed to seed facilities: %w", err)
			}
		}

		if err := tx.Model(&model.User{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if count == 0 {
			users := make([]model.User, len(SeedUsers))
			copy(users, SeedUsers)
			if err := tx.Create(&users).Error; err != nil {
				return fmt.Errorf("failed to seed users: %w", err)
			}
		}
		return nil
	})
}
