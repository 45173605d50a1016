package services

import (
	"sync"
	"testing"

	"curaconnect_backend/internal/email"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/testutil"

	"gorm.io/gorm"
)

type fakeMailer struct {
	mu         sync.Mutex
	recipients []string
	templates  []string
}

func (f *fakeMailer) Send(*email.Email) error { return nil }
func (f *fakeMailer) Validate() error         { return nil }
func (f *fakeMailer) Close() error            { return nil }

func (f *fakeMailer) SendTemplate(to []string, subject string, templateName string, data email.TemplateData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipients = append(f.recipients, to...)
	f.templates = append(f.templates, templateName)
	return nil
}

func (f *fakeMailer) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.recipients...)
}

type recordingRealtime struct {
	mu     sync.Mutex
	pushed map[string]int
}

func (r *recordingRealtime) PushNotification(recipientID string, _ *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pushed == nil {
		r.pushed = map[string]int{}
	}
	r.pushed[recipientID]++
}

func (r *recordingRealtime) count(recipientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pushed[recipientID]
}

type testEnv struct {
	db       *gorm.DB
	services *ServiceContainer
	mailer   *fakeMailer
	realtime *recordingRealtime
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	mailer := &fakeMailer{}
	realtime := &recordingRealtime{}

	container := NewServiceContainer(testutil.TestConfig(), mailer)
	container.Dispatcher.SetRealtime(realtime)

	return &testEnv{
		db:       db,
		services: container,
		mailer:   mailer,
		realtime: realtime,
	}
}
