package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meetingInput struct {
	ExpertID      string  `json:"expertId" validate:"required_without=ExpertName,omitempty,max=255"`
	ExpertName    string  `json:"expertName" validate:"required_without=ExpertID"`
	PreferredDate string  `json:"preferredDate" validate:"required,is-date"`
	PreferredTime *string `json:"preferredTime" validate:"omitempty,is-clock-time"`
	Decision      string  `json:"decision" validate:"omitempty,is-meeting-decision"`
	Mailbox       string  `json:"role" validate:"is-mailbox"`
	Role          string  `json:"userRole" validate:"is-user-role"`
	Action        string  `json:"action" validate:"is-connection-action"`
}

func TestValidator_CustomRules(t *testing.T) {
	v := New()
	clock := "09:45"

	valid := meetingInput{
		ExpertName:    "Dr. Outside",
		PreferredDate: "2026-02-28",
		PreferredTime: &clock,
		Decision:      MeetingDecisionReject,
		Mailbox:       MailboxReceived,
		Role:          "patient",
		Action:        ConnectionActionAccept,
	}
	assert.NoError(t, v.Validate(valid))

	badClock := "25:61"
	invalid := meetingInput{
		PreferredDate: "2026-02-30",
		PreferredTime: &badClock,
		Decision:      "maybe",
		Mailbox:       "archive",
		Role:          "guest",
		Action:        "reject",
	}
	err := v.Validate(invalid)
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "Must be a date in YYYY-MM-DD format", verr.Errors["preferredDate"])
	assert.Equal(t, "Must be a time in HH:MM format", verr.Errors["preferredTime"])
	assert.Equal(t, "Must be one of: accept, reject", verr.Errors["decision"])
	assert.Equal(t, "Must be one of: sent, received", verr.Errors["role"])
	assert.Equal(t, "Must be one of: patient, researcher, admin", verr.Errors["userRole"])
	assert.Equal(t, "Must be: accept", verr.Errors["action"])
	assert.Contains(t, verr.Errors["expertId"], "required when")
	assert.Contains(t, verr.Errors["expertName"], "required when")
}

func TestValidationError_IsDeterministic(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "Validation failed: field 'a': one; field 'b': two", err.Error())
}
