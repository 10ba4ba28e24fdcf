package contact

import (
	"errors"
	"net/mail"
	"testing"

	"ticket-portal/internal/status"

	"github.com/pocketbase/pocketbase/tools/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	sent []*mailer.Message
	err  error
}

func (o *outbox) Send(m *mailer.Message) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, m)
	return nil
}

func newService(o *outbox) *Service {
	return NewService(o, mail.Address{Name: "Ticket Portal", Address: "noreply@portal.test"}, "support@portal.test")
}

func TestSend(t *testing.T) {
	o := &outbox{}

	err := newService(o).Send(Message{Name: " Jane ", Email: "jane@example.com", Message: "Hi <there>\nsecond line"})

	require.NoError(t, err)
	require.Len(t, o.sent, 1)
	m := o.sent[0]
	assert.Equal(t, "support@portal.test", m.To[0].Address)
	assert.Equal(t, "[Contact] New contact message", m.Subject)
	assert.Contains(t, m.HTML, "Hi &lt;there&gt;<br>second line")
	assert.Contains(t, m.Headers["Reply-To"], "jane@example.com")
}

func TestSend_Validation(t *testing.T) {
	tests := []struct {
		name  string
		msg   Message
		field string
	}{
		{"no name", Message{Email: "a@b.co", Message: "hi"}, "name"},
		{"bad email", Message{Name: "A", Email: "nope", Message: "hi"}, "email"},
		{"blank message", Message{Name: "A", Email: "a@b.co", Message: "   "}, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &outbox{}
			err := newService(o).Send(tt.msg)
			assert.ErrorIs(t, err, status.ErrValidation)
			assert.Equal(t, tt.field, status.FieldOf(err))
			assert.Empty(t, o.sent)
		})
	}
}

func TestSend_MailerDown(t *testing.T) {
	err := newService(&outbox{err: errors.New("smtp: 421")}).Send(Message{Name: "A", Email: "a@b.co", Message: "hi"})

	assert.ErrorIs(t, err, status.ErrUpstreamProvider)
}
