package app

import (
	"sync"

	"curaconnect_backend/internal/email"
	"curaconnect_backend/internal/logger"
)

// SentEmail - письмо, "отправленное" через MockEmailProvider
type SentEmail struct {
	To       []string
	Subject  string
	Template string
	Data     email.TemplateData
}

// MockEmailProvider используется для тестов и локальной разработки:
// письма только логируются и запоминаются.
type MockEmailProvider struct {
	mu   sync.Mutex
	sent []SentEmail
}

func (m *MockEmailProvider) Send(msg *email.Email) error {
	m.record(SentEmail{To: msg.To, Subject: msg.Subject})
	return nil
}

func (m *MockEmailProvider) SendTemplate(to []string, subject string, templateName string, data email.TemplateData) error {
	m.record(SentEmail{To: to, Subject: subject, Template: templateName, Data: data})
	return nil
}

func (m *MockEmailProvider) Validate() error { return nil }
func (m *MockEmailProvider) Close() error    { return nil }

// Sent возвращает копию отправленных писем
func (m *MockEmailProvider) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockEmailProvider) record(e SentEmail) {
	m.mu.Lock()
	m.sent = append(m.sent, e)
	m.mu.Unlock()
	logger.Debug("Mock email sent", "to", e.To, "subject", e.Subject, "template", e.Template)
}
