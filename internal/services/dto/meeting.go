package dto

import (
	"curaconnect_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateMeetingRequest struct {
	ExpertID      string  `json:"expertId" validate:"required_without=ExpertName,omitempty,max=255"`
	ExpertName    string  `json:"expertName" validate:"required_without=ExpertID,omitempty,max=255"`
	Message       string  `json:"message" validate:"required,max=5000"`
	PreferredDate string  `json:"preferredDate" validate:"required,is-date"`
	PreferredTime *string `json:"preferredTime" validate:"omitempty,is-clock-time"`
}

type RespondMeetingRequest struct {
	Decision string `json:"decision" validate:"required,is-meeting-decision"`
}

type ListMeetingsQuery struct {
	Role string `form:"role" json:"role" validate:"omitempty,is-mailbox"`
}

// ---------------- Responses ----------------

type MeetingResponse struct {
	Success bool                   `json:"success"`
	Meeting *models.MeetingRequest `json:"meeting"`
}

type MeetingListResponse struct {
	Success  bool                    `json:"success"`
	Meetings []models.MeetingRequest `json:"meetings"`
}
