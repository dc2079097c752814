package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is created once per successful submission. Items holds the priced
// JSON snapshot captured at submission time and is write-once; status is the
// only field mutated afterwards, and only via the conditional update in the
// order repository.
type Order struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Reference     string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"reference"`
	CustomerID    uint      `gorm:"not null;index" json:"customer_id"`
	CustomerName  string    `gorm:"type:varchar(120);not null" json:"customer_name"`
	CustomerEmail string    `gorm:"type:varchar(254);not null" json:"customer_email"`
	CustomerPhone string    `gorm:"type:varchar(32);not null" json:"customer_phone"`
	PaymentMethod *string   `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	Items         string    `gorm:"type:json;not null" json:"items"`
	Status        string    `gorm:"type:varchar(32);not null;default:'aguardando_confirmacao'" json:"status"`
	Notes         *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns the human-facing reference (PED-XXXXXXXX). Immutable
// once created.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.Reference == "" {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		o.Reference = "PED-" + strings.ToUpper(raw[:8])
	}
	return nil
}
