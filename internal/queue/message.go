package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageVersion is the payload version written by this service.
const MessageVersion = 1

// Message is a grade alert awaiting delivery by the mail worker.
type Message struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
	CourseID       string `json:"courseId,omitempty"`
	Recipient      string `json:"recipient"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	RequestID      string `json:"requestId,omitempty"`
	EnqueuedAt     string `json:"enqueuedAt"`
	Version        int    `json:"version"`
}

// Validate reports whether the message can be delivered.
func (m Message) Validate() error {
	switch {
	case m.Version != MessageVersion:
		return errors.New("unsupported message version")
	case strings.TrimSpace(m.Recipient) == "":
		return errors.New("recipient is required")
	case strings.TrimSpace(m.Subject) == "":
		return errors.New("subject is required")
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}
