package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel - id генерируется в приложении, а не в БД,
// поэтому модели одинаково работают на Postgres и на SQLite в тестах.
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsUUID - внешние идентификаторы (эксперты, цели подписки) не обязаны быть uuid
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
