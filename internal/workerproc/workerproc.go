// Package workerproc turns queued grade alerts back into deliveries.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"gradesync/internal/notifications"
	"gradesync/internal/queue"
	"gradesync/internal/shared/config"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a payload that is not a valid alert message.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingNotificationID indicates a message that cannot be correlated to a stored notification.
type ErrMissingNotificationID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingNotificationID) Error() string { return "missing notification id" }

// ErrDeliver indicates the sender rejected a well-formed message. These are retried.
type ErrDeliver struct {
	NotificationID string
	RequestID      string
	Err            error
}

func (e ErrDeliver) Error() string {
	if e.Err == nil {
		return "deliver alert"
	}
	return "deliver alert: " + e.Err.Error()
}

func (e ErrDeliver) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.NotificationID) == "" {
		return msg, meta, ErrMissingNotificationID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Unrecoverable reports whether err means the message should be dropped rather than retried.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingNotificationID
	)
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &missing)
}

// SenderFromConfig delivers through SendGrid when a key is configured and logs otherwise.
func SenderFromConfig(cfg config.Config) notifications.Sender {
	if strings.TrimSpace(cfg.SendGridAPIKey) != "" {
		return notifications.NewSendGridSender(cfg.SendGridAPIKey, cfg.AlertFromName, cfg.AlertFromEmail)
	}
	return notifications.LogSender{}
}

// HandleMessage parses a payload and hands the alert to sender.
func HandleMessage(ctx context.Context, sender notifications.Sender, body string) (queue.Message, error) {
	if sender == nil {
		return queue.Message{}, errors.New("mail sender not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return msg, err
	}

	alert := notifications.Alert{
		NotificationID: msg.NotificationID,
		UserID:         msg.UserID,
		CourseID:       msg.CourseID,
		Recipient:      msg.Recipient,
		Subject:        msg.Subject,
		Body:           msg.Body,
		RequestID:      msg.RequestID,
	}
	if err := sender.Send(ctx, alert); err != nil {
		return msg, ErrDeliver{NotificationID: msg.NotificationID, RequestID: msg.RequestID, Err: err}
	}
	return msg, nil
}
