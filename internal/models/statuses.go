package models

type UserRole string
type ConnectionStatus string
type FollowRequestStatus string
type MeetingStatus string
type MeetingRouting string
type NotificationType string
type OutboxStatus string

const (
	UserRolePatient    UserRole = "patient"
	UserRoleResearcher UserRole = "researcher"
	UserRoleAdmin      UserRole = "admin"

	// Отклонения у связей нет: pending -> accepted, и только получателем
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"

	FollowRequestStatusPending FollowRequestStatus = "PENDING"

	MeetingStatusPending  MeetingStatus = "PENDING"
	MeetingStatusAccepted MeetingStatus = "ACCEPTED"
	MeetingStatusRejected MeetingStatus = "REJECTED"

	MeetingRoutedToExpert MeetingRouting = "expert"
	MeetingRoutedToAdmins MeetingRouting = "admins"

	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// Закрытый набор типов уведомлений
const (
	NotificationTypeConnectionRequest  NotificationType = "connection_request"
	NotificationTypeConnectionAccepted NotificationType = "connection_accepted"
	NotificationTypeNewFollower        NotificationType = "new_follower"
	NotificationTypeFollowRequest      NotificationType = "follow_request"
	NotificationTypeNudge              NotificationType = "nudge"
	NotificationTypeMeetingRequest     NotificationType = "meeting_request"
	NotificationTypeMeetingAccepted    NotificationType = "meeting_accepted"
	NotificationTypeMeetingRejected    NotificationType = "meeting_rejected"
	NotificationTypeForumReply         NotificationType = "forum_reply"
	NotificationTypeNewMessage         NotificationType = "new_message"
	NotificationTypeReply              NotificationType = "reply"
	NotificationTypeSystem             NotificationType = "system"
)

var notificationTypes = map[NotificationType]struct{}{
	NotificationTypeConnectionRequest:  {},
	NotificationTypeConnectionAccepted: {},
	NotificationTypeNewFollower:        {},
	NotificationTypeFollowRequest:      {},
	NotificationTypeNudge:              {},
	NotificationTypeMeetingRequest:     {},
	NotificationTypeMeetingAccepted:    {},
	NotificationTypeMeetingRejected:    {},
	NotificationTypeForumReply:         {},
	NotificationTypeNewMessage:         {},
	NotificationTypeReply:              {},
	NotificationTypeSystem:             {},
}

func (t NotificationType) IsValid() bool {
	_, ok := notificationTypes[t]
	return ok
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRolePatient, UserRoleResearcher, UserRoleAdmin:
		return true
	}
	return false
}

func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusAccepted || s == MeetingStatusRejected
}
