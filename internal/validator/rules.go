package validator

import (
	"log"
	"time"

	"curaconnect_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// Значения, которые принимают эндпоинты ответа
const (
	ConnectionActionAccept = "accept"

	MeetingDecisionAccept = "accept"
	MeetingDecisionReject = "reject"

	MailboxSent     = "sent"
	MailboxReceived = "received"

	DateLayout      = "2006-01-02"
	ClockTimeLayout = "15:04"
)

// registerCustomRules регистрирует кастомные правила валидации.
// Ошибка регистрации - баг конфигурации, приложение не должно стартовать.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-connection-action", validateConnectionAction)
	mustRegister("is-meeting-decision", validateMeetingDecision)
	mustRegister("is-mailbox", validateMailbox)
	mustRegister("is-date", validateDate)
	mustRegister("is-clock-time", validateClockTime)
}

// Пустые значения пропускаем во всех правилах, для этого есть 'required'

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.UserRole(value).IsValid()
}

func validateConnectionAction(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || value == ConnectionActionAccept
}

func validateMeetingDecision(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", MeetingDecisionAccept, MeetingDecisionReject:
		return true
	default:
		return false
	}
}

func validateMailbox(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", MailboxSent, MailboxReceived:
		return true
	default:
		return false
	}
}

func validateDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

func validateClockTime(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(ClockTimeLayout, value)
	return err == nil
}
