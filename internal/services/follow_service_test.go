package services

import (
	"testing"
	"time"

	"curaconnect_backend/internal/email"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/services/dto"
	"curaconnect_backend/internal/testutil"
	"curaconnect_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow_RegisteredTarget(t *testing.T) {
	env := newTestEnv(t)
	patient := testutil.CreatePatient(t, env.db, "Paula Patient")
	researcher := testutil.CreateResearcher(t, env.db, "Rita Researcher", true)
	svc := env.services.FollowService

	result, err := svc.Follow(env.db, patient.ID, &dto.FollowRequest{TargetID: researcher.ID})
	require.NoError(t, err)
	require.NotNil(t, result.Follow)
	assert.False(t, result.PendingReview)
	assert.Equal(t, researcher.ID, result.Follow.FollowingID)

	inbox := testutil.Notifications(t, env.db, researcher.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationTypeNewFollower, inbox[0].Type)
	assert.Equal(t, "New Follower", inbox[0].Title)
	assert.Equal(t, "Paula Patient started following you", inbox[0].Message)
	assert.Equal(t, patient.ID, inbox[0].MetadataMap()["followerId"])

	_, err = svc.Follow(env.db, patient.ID, &dto.FollowRequest{TargetID: researcher.ID})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyFollowing)

	following, err := svc.IsFollowing(env.db, patient.ID, researcher.ID)
	require.NoError(t, err)
	assert.True(t, following)

	list, err := svc.ListFollowing(env.db, patient.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	followers, err := svc.ListFollowers(env.db, researcher.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, patient.ID, followers[0].FollowerID)

	removed, err := svc.Unfollow(env.db, patient.ID, researcher.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	// Повторный unfollow - не ошибка
	removed, err = svc.Unfollow(env.db, patient.ID, researcher.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	following, err = svc.IsFollowing(env.db, patient.ID, researcher.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollow_SelfAndNonUUIDTargets(t *testing.T) {
	env := newTestEnv(t)
	patient := testutil.CreatePatient(t, env.db, "Paula Patient")
	svc := env.services.FollowService

	_, err := svc.Follow(env.db, patient.ID, &dto.FollowRequest{TargetID: patient.ID})
	assert.ErrorIs(t, err, apperrors.ErrSelfFollow)

	following, err := svc.IsFollowing(env.db, patient.ID, "orcid-0000-0001")
	require.NoError(t, err)
	assert.False(t, following)

	removed, err := svc.Unfollow(env.db, patient.ID, "orcid-0000-0001")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollow_ExternalTargetEscalatesToAdmins(t *testing.T) {
	env := newTestEnv(t)
	patient := testutil.CreatePatient(t, env.db, "Paula Patient")
	firstAdmin := testutil.CreateAdmin(t, env.db, "First Admin")
	secondAdmin := testutil.CreateAdmin(t, env.db, "Second Admin")
	svc := env.services.FollowService

	result, err := svc.Follow(env.db, patient.ID, &dto.FollowRequest{
		TargetID:   "orcid-0000-0002",
		TargetName: "Dr. Grace Hopper",
		Message:    "Please invite her",
	})
	require.NoError(t, err)
	assert.True(t, result.PendingReview)
	assert.Nil(t, result.Follow)
	require.NotNil(t, result.FollowRequest)
	assert.Equal(t, models.FollowRequestStatusPending, result.FollowRequest.Status)
	assert.Equal(t, "orcid-0000-0002", result.FollowRequest.ExternalID)

	for _, admin := range []*models.User{firstAdmin, secondAdmin} {
		inbox := testutil.Notifications(t, env.db, admin.ID)
		require.Len(t, inbox, 1, "каждый администратор получает свое уведомление")
		assert.Equal(t, models.NotificationTypeFollowRequest, inbox[0].Type)
		assert.Equal(t, "New Follow Request", inbox[0].Title)
		metadata := inbox[0].MetadataMap()
		assert.Equal(t, result.FollowRequest.ID, metadata["followRequestId"])
		assert.Equal(t, "Dr. Grace Hopper", metadata["targetName"])
		assert.Equal(t, "Please invite her", metadata["message"])
		assert.Equal(t, 1, env.realtime.count(admin.ID))
	}

	assert.Eventually(t, func() bool {
		return len(env.mailer.sentTo()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{firstAdmin.Email, secondAdmin.Email}, env.mailer.sentTo())
	env.mailer.mu.Lock()
	assert.Equal(t, []string{email.TemplateAdminEscalation, email.TemplateAdminEscalation}, env.mailer.templates)
	env.mailer.mu.Unlock()

	requests, err := svc.ListFollowRequests(env.db, models.FollowRequestStatusPending, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, requests.Total)
	assert.Equal(t, 1, requests.TotalPages)
	require.Len(t, requests.Requests, 1)
	assert.Equal(t, patient.ID, requests.Requests[0].RequesterID)
}

func TestFollow_ExternalTargetWithoutAdmins(t *testing.T) {
	env := newTestEnv(t)
	patient := testutil.CreatePatient(t, env.db, "Paula Patient")

	result, err := env.services.FollowService.Follow(env.db, patient.ID, &dto.FollowRequest{TargetID: "external-42"})
	require.NoError(t, err)
	assert.True(t, result.PendingReview)
	assert.Equal(t, "external-42", result.FollowRequest.TargetName)

	var count int64
	require.NoError(t, env.db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFollow_ListFollowRequestsPagination(t *testing.T) {
	env := newTestEnv(t)
	patient := testutil.CreatePatient(t, env.db, "Paula Patient")
	svc := env.services.FollowService

	for _, target := range []string{"ext-1", "ext-2", "ext-3"} {
		_, err := svc.Follow(env.db, patient.ID, &dto.FollowRequest{TargetID: target})
		require.NoError(t, err)
	}

	page, err := svc.ListFollowRequests(env.db, models.FollowRequestStatusPending, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Requests, 1)
}
