package models

import (
	"time"

	"github.com/google/uuid"
)

// Branch is the tenant boundary: every order and every inventory row belongs
// to exactly one branch.
type Branch struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Timezone  string    `gorm:"column:timezone;not null;default:'UTC'"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
