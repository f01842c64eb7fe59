package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OtpTTL is how long a one-time code stays valid.
const OtpTTL = 10 * time.Minute

// Otp is a pending one-time login code. Rows past ExpiresAt are never accepted.
type Otp struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;not null;index:idx_otps_email_code" json:"email"`
	Code      string    `gorm:"column:code;type:varchar(6);not null;index:idx_otps_email_code" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expiresAt"`
}

func (Otp) TableName() string {
	return "otps"
}

func (o *Otp) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
