package model

import "time"

// FacilityType classifies a bookable space.
type FacilityType string

const (
	FacilityAuditorium  FacilityType = "auditorium"
	FacilityClassroom   FacilityType = "classroom"
	FacilityField       FacilityType = "field"
	FacilityMeetingRoom FacilityType = "meeting_room"
	FacilityLab         FacilityType = "lab"
)

// FacilityStatus describes whether a facility can currently be used.
type FacilityStatus string

const (
	FacilityAvailable   FacilityStatus = "available"
	FacilityMaintenance FacilityStatus = "maintenance"
	FacilityRenovation  FacilityStatus = "renovation"
	FacilityClosed      FacilityStatus = "closed"
)

// Facility is a bookable space such as an auditorium or classroom.
type Facility struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	Name        string         `gorm:"size:256;not null" json:"name"`
	Type        FacilityType   `gorm:"size:32;not null" json:"type"`
	Capacity    int            `gorm:"not null" json:"capacity"`
	Location    string         `gorm:"size:256" json:"location"`
	Status      FacilityStatus `gorm:"size:32;not null;default:available" json:"status"`
	Description string         `gorm:"type:text" json:"description"`
	Features    []string       `gorm:"serializer:json" json:"features"`
	ImageURL    string         `gorm:"size:512" json:"imageUrl,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Bookable reports whether the facility accepts new bookings.
func (f Facility) Bookable() bool {
	return f.Status == FacilityAvailable
}
