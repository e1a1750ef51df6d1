package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
)

const auditWriteTimeout = 3 * time.Second

// AuditingGateway decorates a Gateway with provider-call audit records so a
// disputed purchase can be traced to its exact submit and requery exchanges.
// Audit writes are best-effort: a failed write is logged and never changes
// the call outcome.
type AuditingGateway struct {
	logger *slog.Logger
	next   Gateway
	calls  reconciliation.ProviderCallRepository
}

// NewAuditingGateway wraps next with audit recording
func NewAuditingGateway(logger *slog.Logger, next Gateway, calls reconciliation.ProviderCallRepository) *AuditingGateway {
	return &AuditingGateway{
		logger: logger,
		next:   next,
		calls:  calls,
	}
}

var _ Gateway = (*AuditingGateway)(nil)

func (g *AuditingGateway) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	start := time.Now()
	result, err := g.next.Submit(ctx, req)

	call := &reconciliation.ProviderCall{
		Kind:      "submit",
		Reference: req.RequestID,
		Category:  string(req.Category),
		Amount:    req.Amount,
		Recipient: req.Recipient,
		LatencyMS: time.Since(start).Milliseconds(),
		At:        start.UTC().Format(time.RFC3339),
	}
	switch {
	case err == nil:
		call.Outcome = "accepted"
		call.ProviderRef = result.ProviderReference
	case errors.Is(err, ErrRejected{}):
		call.Outcome = "rejected"
		call.Error = err.Error()
	case errors.Is(err, ErrAmbiguous{}):
		call.Outcome = "ambiguous"
		call.Error = err.Error()
	default:
		call.Outcome = "error"
		call.Error = err.Error()
	}
	g.record(ctx, call)

	return result, err
}

func (g *AuditingGateway) Requery(ctx context.Context, reference string) (*RequeryResult, error) {
	start := time.Now()
	result, err := g.next.Requery(ctx, reference)

	call := &reconciliation.ProviderCall{
		Kind:      "requery",
		Reference: reference,
		LatencyMS: time.Since(start).Milliseconds(),
		At:        start.UTC().Format(time.RFC3339),
	}
	if err == nil {
		call.Outcome = string(result.DeliveryState)
		call.ProviderRef = result.ProviderReference
	} else {
		call.Outcome = "ambiguous"
		call.Error = err.Error()
	}
	g.record(ctx, call)

	return result, err
}

// record writes the audit document detached from the caller's deadline so a
// cancelled request still leaves its trace.
func (g *AuditingGateway) record(ctx context.Context, call *reconciliation.ProviderCall) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := g.calls.Insert(auditCtx, call); err != nil {
		g.logger.Error("Failed to record provider call audit",
			"kind", call.Kind,
			"reference", call.Reference,
			"error", err,
		)
	}
}
