// Package email отправляет эскалации администраторам.
// Письма дублируют in-app уведомления и не участвуют в транзакциях.
package email

// Provider - отправка писем. Реализации: SMTPProvider и мок в тестах.
type Provider interface {
	Send(email *Email) error
	SendTemplate(to []string, subject string, templateName string, data TemplateData) error
	Validate() error
	Close() error
}

// TemplateRenderer превращает именованный шаблон в HTML
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
}

type Email struct {
	From     string
	To       []string
	Bcc      []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData - Title, Message и Details (metadata уведомления)
type TemplateData map[string]interface{}

// SMTPConfig собирается из секции email конфига
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}
