package main

// Build for the provided.al2023 runtime:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"gradesync/internal/notifications"
	"gradesync/internal/shared/config"
	"gradesync/internal/shared/metrics"
	"gradesync/internal/shared/telemetry"
	"gradesync/internal/workerproc"
)

var version = "dev"

var (
	initOnce sync.Once
	sender   notifications.Sender
)

func initSender() {
	cfg := config.Load()
	telemetry.EnableRollbar(cfg.RollbarToken, cfg.Env, version)
	sender = workerproc.SenderFromConfig(cfg)
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initSender)
	defer telemetry.Flush()
	return processBatch(ctx, sender, event), nil
}

// processBatch reports failed deliveries so only those records return to the queue.
// Undeliverable payloads are acknowledged.
func processBatch(ctx context.Context, sender notifications.Sender, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncMailJobReceived()
		msg, err := workerproc.HandleMessage(ctx, sender, record.Body)
		fields := map[string]any{
			"notification_id": msg.NotificationID,
			"sqs_message_id":  record.MessageId,
		}
		switch {
		case err == nil:
			telemetry.Info("worker.mail.delivered", fields)
			metrics.IncMailJobDelivered()
		case workerproc.Unrecoverable(err):
			fields["error"] = err.Error()
			telemetry.Error("worker.mail.undeliverable", fields)
			metrics.IncMailJobUnrecoverable()
		default:
			fields["error"] = err.Error()
			telemetry.Error("worker.mail.failed", fields)
			metrics.IncMailJobFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
