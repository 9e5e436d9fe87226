package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserPresence is a per-user singleton row updated by client heartbeats.
// The stored IsOnline flag is advisory and can be stale: readers must apply
// the last_seen window (see repository.PresenceRepository.ListOnline).
type UserPresence struct {
	UserID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsOnline          bool      `gorm:"not null;default:false"`
	LastSeen          time.Time `gorm:"not null;index"`
	Latitude          *float64
	Longitude         *float64
	LocationUpdatedAt *time.Time
	DeviceInfo        datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt         time.Time
}

func (UserPresence) TableName() string { return "user_presence" }

// OnlineAt applies the read-time interpretation: online means last_seen is
// within the window, regardless of the stored flag.
func (p *UserPresence) OnlineAt(now time.Time, window time.Duration) bool {
	return now.Sub(p.LastSeen) <= window
}
