package models

// Follow - одностороннее ребро, само существование строки и есть состояние
type Follow struct {
	BaseModel
	FollowerID  string `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:1" json:"followerId"`
	FollowingID string `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"followingId"`
}

// FollowRequest создается, когда цель подписки не зарегистрирована.
// Разбирает такие заявки администратор (вне этого сервиса).
type FollowRequest struct {
	BaseModel
	RequesterID string              `gorm:"type:uuid;not null;index" json:"requesterId"`
	TargetName  string              `gorm:"not null" json:"targetName"`
	ExternalID  string              `gorm:"index" json:"externalId"`
	Message     string              `gorm:"type:text" json:"message,omitempty"`
	Status      FollowRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
}
