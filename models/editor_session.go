package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EditorSession persists one console editor form so it survives restarts.
// Product holds the editor product as JSON text.
type EditorSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Kind      string    `gorm:"not null;index" json:"kind"`
	Query     string    `json:"query"`
	Message   string    `json:"message"`
	Product   string    `gorm:"type:text" json:"product"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *EditorSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
