package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/app"
	"github.com/imrishuroy/go-checkout-orderflow/internal/config"
	"github.com/imrishuroy/go-checkout-orderflow/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	l, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	a, err := app.Build(context.Background(), cfg, l)
	if err != nil {
		l.Fatal("failed to build app", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	var dedupe Deduper
	if a.Idempotency != nil {
		dedupe = a.Idempotency
	}
	p := NewProcessor(a.Payments, a.Razorpay, dedupe, l.Named("worker"))

	// If RUN_LOCAL=true, process a single simulated SQS message and exit.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"type":"payment.confirmed","payment_id":1,"correlation_id":"local-1"}`
		}
		resp, _ := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if len(resp.BatchItemFailures) > 0 {
			l.Fatal("local message failed")
		}
		return
	}

	lambda.Start(p.Handle)
}
