package queue

import (
	"encoding/json"
	"testing"
)

func TestEncodeMessageUsesWireNames(t *testing.T) {
	payload, err := EncodeMessage(Message{
		NotificationID: "n-1",
		UserID:         "guest:abc",
		Recipient:      "student@example.edu",
		Subject:        "Grade Update for Intro",
		Body:           "Current grade: 79.5% (C+)",
		EnqueuedAt:     "2026-02-02T12:00:00Z",
		Version:        MessageVersion,
	})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"notificationId", "userId", "recipient", "subject", "body", "enqueuedAt", "version"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("expected key %q in %s", key, payload)
		}
	}
	if _, ok := raw["courseId"]; ok {
		t.Fatalf("expected empty courseId to be omitted")
	}
}

func TestDecodeMessageValidates(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"recipient":"a@b.c","subject":"s","version":1}`, false},
		{"future version", `{"recipient":"a@b.c","subject":"s","version":2}`, true},
		{"no recipient", `{"subject":"s","version":1}`, true},
		{"no subject", `{"recipient":"a@b.c","version":1}`, true},
		{"malformed", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeMessage err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
