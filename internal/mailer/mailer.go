package mailer

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTP delivers mail through a relay.
type SMTP struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, user, password, from string) *SMTP {
	return &SMTP{
		from:   from,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// Noop is used when SMTP is not configured; it only logs.
type Noop struct {
	Logger *zap.Logger
}

func (n Noop) Send(_ context.Context, msg Message) error {
	n.Logger.Info("mail not sent, smtp disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

var (
	contactTmpl = template.Must(template.New("contact").Parse(
		`Hi {{.SellerName}},

{{.BuyerName}} ({{.BuyerEmail}}) is interested in your board "{{.ListingTitle}}":

{{.Message}}

Reply to this email to answer them directly.
`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`Hi {{.Name}},

Welcome to Surf Market. List your quiver, save boards you like and find something
to ride near you.
`))
)

type ContactData struct {
	SellerName   string
	BuyerName    string
	BuyerEmail   string
	ListingTitle string
	Message      string
}

func ContactMessage(to string, d ContactData) (Message, error) {
	var buf bytes.Buffer
	if err := contactTmpl.Execute(&buf, d); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		ReplyTo: d.BuyerEmail,
		Subject: fmt.Sprintf("Someone is asking about %q", d.ListingTitle),
		Body:    buf.String(),
	}, nil
}

func WelcomeMessage(to, name string) (Message, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, struct{ Name string }{name}); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Welcome to Surf Market",
		Body:    buf.String(),
	}, nil
}
