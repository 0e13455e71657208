package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	domain "github.com/imrishuroy/go-checkout-orderflow/internal/events"
	"github.com/imrishuroy/go-checkout-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-checkout-orderflow/internal/provider"
)

const dedupeScope = "worker"

// Reconciler is the part of the payment service the worker drives.
type Reconciler interface {
	MarkPaid(ctx context.Context, paymentID int64) (bool, error)
	FailPayment(ctx context.Context, paymentID int64) (bool, error)
}

// Deduper records SQS deliveries so redelivered messages are not settled twice.
type Deduper interface {
	Claim(ctx context.Context, scope, key, requestHash string) (*idempotency.IdempotencyRecord, bool, error)
	MarkDone(ctx context.Context, scope, key, resourceID, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, scope, key, note string) error
}

// Processor settles provider payment confirmations.
type Processor struct {
	payments   Reconciler
	signatures *provider.RazorpayVerifier
	dedupe     Deduper
	log        *zap.Logger
}

// NewProcessor creates a worker processor. dedupe may be nil.
func NewProcessor(payments Reconciler, signatures *provider.RazorpayVerifier, dedupe Deduper, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{payments: payments, signatures: signatures, dedupe: dedupe, log: log}
}

// Handle processes an SQS batch. Messages that hit a retryable failure are
// reported individually so only they are redelivered (and end in the DLQ
// after too many attempts).
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker message failed", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg WorkerMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		p.log.Warn("dropping malformed message", zap.String("message_id", rec.MessageId), zap.Error(err))
		return nil
	}
	log := p.log.With(
		zap.String("message_id", rec.MessageId),
		zap.String("type", msg.Type),
		zap.Int64("payment_id", msg.PaymentID),
		zap.String("correlation_id", msg.CorrelationID),
	)

	if p.dedupe == nil {
		_, err := p.settle(ctx, msg, log)
		return err
	}

	sum := sha256.Sum256([]byte(rec.Body))
	existing, claimed, err := p.dedupe.Claim(ctx, dedupeScope, rec.MessageId, hex.EncodeToString(sum[:]))
	if err != nil {
		return fmt.Errorf("claim delivery: %w", err)
	}
	if !claimed {
		if existing.Status == idempotency.StatusDone {
			log.Info("duplicate delivery skipped", zap.String("outcome", existing.ResponseBody))
			return nil
		}
		return fmt.Errorf("delivery %s is being processed elsewhere", rec.MessageId)
	}

	outcome, err := p.settle(ctx, msg, log)
	if err != nil {
		if markErr := p.dedupe.MarkFailed(ctx, dedupeScope, rec.MessageId, err.Error()); markErr != nil {
			log.Warn("mark delivery failed", zap.Error(markErr))
		}
		return err
	}
	if err := p.dedupe.MarkDone(ctx, dedupeScope, rec.MessageId, strconv.FormatInt(msg.PaymentID, 10), outcome, 0); err != nil {
		log.Warn("mark delivery done", zap.Error(err))
	}
	return nil
}

// settle applies one message. Only retryable failures come back as errors;
// messages that can never succeed are logged and dropped.
func (p *Processor) settle(ctx context.Context, msg WorkerMessage, log *zap.Logger) (string, error) {
	if msg.PaymentID <= 0 {
		log.Warn("dropping message without payment id")
		return outcomeRejected, nil
	}

	var (
		changed bool
		err     error
	)
	switch msg.Type {
	case domain.TypePaymentConfirmed:
		if sigErr := p.signatures.Verify(msg.ProviderOrderID, msg.ProviderPaymentID, msg.Signature); sigErr != nil {
			log.Warn("dropping unverified confirmation", zap.Error(sigErr))
			return outcomeRejected, nil
		}
		changed, err = p.payments.MarkPaid(ctx, msg.PaymentID)
	case domain.TypePaymentFailed:
		changed, err = p.payments.FailPayment(ctx, msg.PaymentID)
	default:
		log.Warn("dropping unknown message type")
		return outcomeIgnored, nil
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		log.Warn("dropping message for unknown payment")
		return outcomeUnknownPayment, nil
	case err != nil:
		return "", err
	case !changed:
		log.Info("payment left unchanged")
		return outcomeUnchanged, nil
	}
	log.Info("payment settled")
	return outcomeSettled, nil
}
