package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Status changes of a user's bookings are pushed to every subscription they own.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;size:64;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
