package model

import "time"

// Role is the access level of a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// User is a person who books facilities or reviews bookings.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Role      Role      `gorm:"size:32;not null" json:"role"`
	NIM       string    `gorm:"column:nim;size:32" json:"nim,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
