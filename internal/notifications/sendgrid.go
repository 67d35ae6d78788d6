package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender mails alerts directly through the SendGrid v3 API.
type SendGridSender struct {
	Key        string
	From       *sgmail.Email
	SubjPrefix string
	Host       string
}

func NewSendGridSender(key, fromName, fromAddress string) *SendGridSender {
	return &SendGridSender{
		Key:        key,
		From:       sgmail.NewEmail(fromName, fromAddress),
		SubjPrefix: "[GradeSync] ",
		Host:       sendgridHost,
	}
}

func (s *SendGridSender) Name() string { return "email" }

func (s *SendGridSender) Send(ctx context.Context, alert Alert) error {
	if alert.Recipient == "" {
		return errors.New("no recipient email")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(s.Key, sendgridEndpoint, s.Host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(alert))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (s *SendGridSender) prepare(alert Alert) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.SubjPrefix + alert.Subject
	p.AddTos(sgmail.NewEmail("", alert.Recipient))
	if alert.NotificationID != "" {
		p.SetCustomArg("notification_id", alert.NotificationID)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.From)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", alert.Body))
	return m
}
