package models

import "time"

type MeetingRequest struct {
	BaseModel
	RequesterID string `gorm:"type:uuid;not null;index" json:"requesterId"`
	// Эксперт может быть внешним, поэтому не uuid
	ExpertID      string         `gorm:"type:varchar(255);index" json:"expertId"`
	ExpertName    string         `json:"expertName,omitempty"`
	Message       string         `gorm:"type:text;not null" json:"message"`
	PreferredDate string         `gorm:"type:varchar(10);not null" json:"preferredDate"`
	PreferredTime *string        `gorm:"type:varchar(5)" json:"preferredTime,omitempty"`
	Status        MeetingStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RoutedTo      MeetingRouting `gorm:"type:varchar(20);not null" json:"routedTo"`
	RespondedAt   *time.Time     `json:"respondedAt,omitempty"`
}
