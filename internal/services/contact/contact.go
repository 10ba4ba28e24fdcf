package contact

import (
	"fmt"
	"html"
	"log/slog"
	"net/mail"
	"strings"

	"ticket-portal/internal/status"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase/tools/mailer"
)

type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Service relays contact form messages to the support inbox.
type Service struct {
	mail mailer.Mailer
	from mail.Address
	to   mail.Address
}

func NewService(m mailer.Mailer, from mail.Address, to string) *Service {
	return &Service{mail: m, from: from, to: mail.Address{Address: to}}
}

func (m *Message) normalize() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)

	if err := validation.Validate(m.Name, validation.Required, validation.Length(1, 120)); err != nil {
		return status.Validation("name", "Please enter your name.")
	}
	if err := validation.Validate(m.Email, validation.Required, is.EmailFormat); err != nil {
		return status.Validation("email", "Please enter a valid email address.")
	}
	if err := validation.Validate(m.Message, validation.Required, validation.Length(1, 5000)); err != nil {
		return status.Validation("message", "Please enter a message.")
	}
	return nil
}

func (s *Service) Send(msg Message) error {
	if err := msg.normalize(); err != nil {
		return err
	}

	subject := msg.Subject
	if subject == "" {
		subject = "New contact message"
	}

	err := s.mail.Send(&mailer.Message{
		From:    s.from,
		To:      []mail.Address{s.to},
		Subject: fmt.Sprintf("[Contact] %s", subject),
		HTML:    body(msg),
		Headers: map[string]string{"Reply-To": (&mail.Address{Name: msg.Name, Address: msg.Email}).String()},
	})
	if err != nil {
		slog.Error("s.mail.Send()", "email", msg.Email, "error", err)
		return status.Upstream("Your message could not be sent. Please try again later.", err)
	}
	return nil
}

func body(msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>From:</strong> %s &lt;%s&gt;</p>", html.EscapeString(msg.Name), html.EscapeString(msg.Email))
	if msg.Subject != "" {
		fmt.Fprintf(&b, "<p><strong>Subject:</strong> %s</p>", html.EscapeString(msg.Subject))
	}
	b.WriteString("<p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(msg.Message), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}
