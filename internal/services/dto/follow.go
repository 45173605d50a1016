package dto

import (
	"curaconnect_backend/internal/models"
)

// ---------------- Requests ----------------

// FollowRequest - targetId может быть id внешнего эксперта, тогда нужен targetName
type FollowRequest struct {
	TargetID   string `json:"targetId" validate:"required,max=255"`
	TargetName string `json:"targetName" validate:"omitempty,max=255"`
	Message    string `json:"message" validate:"omitempty,max=2000"`
}

type FollowRequestsQuery struct {
	Status string `form:"status" json:"status" validate:"omitempty,oneof=PENDING"`
}

// ---------------- Responses ----------------

// FollowResult - ровно одно из Follow / FollowRequest заполнено
type FollowResult struct {
	Follow        *models.Follow        `json:"follow,omitempty"`
	FollowRequest *models.FollowRequest `json:"followRequest,omitempty"`
	PendingReview bool                  `json:"pendingReview,omitempty"`
}

type FollowResponse struct {
	Success bool           `json:"success"`
	Follow  *models.Follow `json:"follow"`
}

type PendingFollowResponse struct {
	Success       bool                  `json:"success"`
	PendingReview bool                  `json:"pendingReview"`
	FollowRequest *models.FollowRequest `json:"followRequest"`
}

type UnfollowResponse struct {
	Success bool `json:"success"`
	Removed bool `json:"removed"`
}

type FollowListResponse struct {
	Success bool            `json:"success"`
	Follows []models.Follow `json:"follows"`
	Total   int             `json:"total"`
}

type FollowStatusResponse struct {
	Success     bool `json:"success"`
	IsFollowing bool `json:"isFollowing"`
}

type FollowRequestListResponse struct {
	Success    bool                   `json:"success"`
	Requests   []models.FollowRequest `json:"requests"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}
