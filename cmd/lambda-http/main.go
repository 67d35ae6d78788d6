package main

// Build for the provided.al2023 runtime:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"gradesync/internal/bootstrap"
	"gradesync/internal/shared/config"
	"gradesync/internal/shared/telemetry"
)

var version = "dev"

var (
	initOnce sync.Once
	initErr  error
	proxy    *ginadapter.GinLambdaV2
)

func initApp() {
	cfg := config.Load()
	telemetry.EnableRollbar(cfg.RollbarToken, cfg.Env, version)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	proxy = ginadapter.NewV2(app.Router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil || proxy == nil {
		fields := map[string]any{"route_key": req.RouteKey}
		if initErr != nil {
			fields["error"] = initErr.Error()
		}
		telemetry.Error("lambda.bootstrap_failed", fields)
		telemetry.Flush()
		return unavailable(), nil
	}
	return proxy.ProxyWithContext(ctx, req)
}

func unavailable() events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"error":{"code":"unavailable","message":"Service is starting up"}}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(handler)
}
