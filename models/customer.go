package models

import "time"

// Customer is deduplicated by the normalized (email, phone) pair. The
// composite unique index is the source of truth for that invariant; the
// resolver only reacts to the conflict it raises.
type Customer struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(120);not null" json:"name"`
	Email           string    `gorm:"type:varchar(254);not null" json:"email"`
	Phone           string    `gorm:"type:varchar(32);not null" json:"phone"`
	EmailNormalized string    `gorm:"type:varchar(254);not null;uniqueIndex:idx_customers_contact" json:"email_normalized"`
	PhoneNormalized string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_customers_contact" json:"phone_normalized"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}
