package handlers

import (
	"net/http"

	"curaconnect_backend/internal/auth"
	"curaconnect_backend/internal/middleware"
	"curaconnect_backend/internal/services"
	"curaconnect_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type MeetingHandler struct {
	*BaseHandler
	meetingService services.MeetingService
}

func NewMeetingHandler(base *BaseHandler, meetingService services.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		BaseHandler:    base,
		meetingService: meetingService,
	}
}

func (h *MeetingHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	meetings := r.Group("/meetings")
	meetings.Use(authMW)
	{
		meetings.POST("", middleware.RequirePermission(auth.PermMeetingsRequest), h.RequestMeeting)
		meetings.GET("", h.ListMeetings)
		meetings.GET("/:meetingId", h.GetMeeting)
		meetings.PUT("/:meetingId/respond", middleware.RequirePermission(auth.PermMeetingsRespond), h.RespondToMeeting)
	}
}

func (h *MeetingHandler) RequestMeeting(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateMeetingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	meeting, err := h.meetingService.RequestMeeting(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MeetingResponse{Success: true, Meeting: meeting})
}

func (h *MeetingHandler) RespondToMeeting(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RespondMeetingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	meeting, err := h.meetingService.RespondToMeeting(h.GetDB(c), c.Param("meetingId"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeetingResponse{Success: true, Meeting: meeting})
}

func (h *MeetingHandler) ListMeetings(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var query dto.ListMeetingsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	meetings, err := h.meetingService.ListMeetings(h.GetDB(c), userID, query.Role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeetingListResponse{Success: true, Meetings: meetings})
}

func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	meeting, err := h.meetingService.GetMeeting(h.GetDB(c), c.Param("meetingId"), userID, h.GetUserRole(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeetingResponse{Success: true, Meeting: meeting})
}
