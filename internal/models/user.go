package models

// User - зарегистрированная учетная запись. Регистрация и выпуск токенов
// живут во внешнем сервисе, здесь мы только читаем пользователей.
type User struct {
	BaseModel
	Email string   `gorm:"uniqueIndex;not null" json:"email"`
	Name  string   `gorm:"not null" json:"name"`
	Role  UserRole `gorm:"type:varchar(20);not null;index" json:"role"`

	// Relations (профиль ровно один, по роли)
	PatientProfile    *PatientProfile    `gorm:"foreignKey:UserID" json:"patientProfile,omitempty"`
	ResearcherProfile *ResearcherProfile `gorm:"foreignKey:UserID" json:"researcherProfile,omitempty"`
}

type PatientProfile struct {
	BaseModel
	UserID    string `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Condition string `json:"condition,omitempty"`
	Location  string `json:"location,omitempty"`
}

type ResearcherProfile struct {
	BaseModel
	UserID               string `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Institution          string `json:"institution,omitempty"`
	Specialty            string `json:"specialty,omitempty"`
	AvailableForMeetings bool   `gorm:"not null;default:false" json:"availableForMeetings"`
}

// AcceptsMeetings - эксперт принимает встречи напрямую, без эскалации на админов
func (u *User) AcceptsMeetings() bool {
	return u.Role == UserRoleResearcher && u.ResearcherProfile != nil && u.ResearcherProfile.AvailableForMeetings
}

func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
