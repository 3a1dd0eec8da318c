package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ConversionResult is the outcome of converting a quote into an order
type ConversionResult struct {
	OrderID string
	// Fallback is set when the backend failed and the order exists only in
	// the local store
	Fallback bool
	Order    *quote.FallbackOrder
	Quote    *quote.Quote
	// JobDraft pre-fills job creation for the new order. Nil when the backend
	// did not report an order ID.
	JobDraft  *job.Draft
	Message   string
	RemoteErr error
}

// ConvertClaimKey is the idempotency key guarding conversion of quoteID
func ConvertClaimKey(quoteID string) string {
	return "convert:" + quoteID
}

// Convert turns an approved quote into an order.
//
// The status gate runs before confirmation and before any network call.
// When the backend conversion fails for any reason other than ctx being
// done, a fallback order is synthesized, stored locally and the quote is
// marked converted in the local state only.
func (m *Manager) Convert(ctx context.Context, id string) (*ConversionResult, error) {
	ctx = logger.WithQuoteID(ctx, id)
	ctx, span := telemetry.Tracer().Start(ctx, "quote.Convert")
	defer span.End()
	span.SetAttributes(attribute.String("quote.id", id))

	q, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.CheckAction(quote.ActionConvert); err != nil {
		return nil, err
	}
	if err := m.confirm(ctx, quote.ActionConvert, *q,
		fmt.Sprintf("Convert quote %s into an order?", q.DisplayReference())); err != nil {
		return nil, err
	}

	key := ConvertClaimKey(id)
	if m.claims != nil {
		claimed, err := m.claims.Claim(ctx, key, m.claimTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to claim conversion of quote %s: %w", id, err)
		}
		if !claimed {
			return nil, shared.NewDomainError(shared.ErrConflict.Code,
				fmt.Sprintf("Quote %s is already being converted", q.DisplayReference()))
		}
	}

	log := logger.Bind(ctx, m.logger)

	ref, remoteErr := m.orders.FromQuote(ctx, id)
	if remoteErr == nil {
		span.SetAttributes(attribute.String("order.id", ref.ID), attribute.Bool("order.fallback", false))
		m.metrics.ObserveConversion(telemetry.ConversionRemote)
		return m.remoteConverted(ctx, *q, ref), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		m.release(ctx, key)
		m.metrics.ObserveConversion(telemetry.ConversionFailed)
		span.RecordError(remoteErr)
		span.SetStatus(codes.Error, "cancelled")
		return nil, remoteErr
	}

	log.Warn("Order conversion failed, creating local fallback order", zap.Error(remoteErr))

	order := quote.NewFallbackOrder(*q, m.defaults, m.now())
	if err := m.storeFallback(ctx, order); err != nil {
		m.release(ctx, key)
		m.metrics.ObserveConversion(telemetry.ConversionFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback store failed")
		return nil, fmt.Errorf("failed to store local order for quote %s: %w", id, err)
	}

	converted := m.markConverted(id, order.ID)
	if converted == nil {
		c := q.Copy()
		c.MarkConverted(order.ID)
		converted = &c
	}

	m.metrics.ObserveConversion(telemetry.ConversionFallback)
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Bool("order.fallback", true))
	log.Info("Local fallback order created", zap.String("order_id", order.ID))

	return &ConversionResult{
		OrderID:  order.ID,
		Fallback: true,
		Order:    &order,
		Quote:    converted,
		JobDraft: jobDraft(*converted, order.ID),
		Message: fmt.Sprintf("The server could not convert quote %s. Order %s was created on this device only "+
			"and has not been synced to the server.", q.DisplayReference(), order.ID),
		RemoteErr: remoteErr,
	}, nil
}

func (m *Manager) remoteConverted(ctx context.Context, q quote.Quote, ref quote.OrderRef) *ConversionResult {
	log := logger.Bind(ctx, m.logger)

	result := &ConversionResult{OrderID: ref.ID}
	if _, err := m.Refresh(ctx); err != nil {
		log.Warn("Quote converted but list refresh failed", zap.Error(err))
	}

	if updated, err := m.Get(ctx, q.ID); err == nil {
		result.Quote = updated
	} else {
		c := q.Copy()
		c.MarkConverted(ref.ID)
		result.Quote = &c
	}

	if ref.ID == "" {
		result.Message = fmt.Sprintf("Quote %s was converted, but the server did not return an order ID.", q.DisplayReference())
		return result
	}

	result.JobDraft = jobDraft(q, ref.ID)
	result.Message = fmt.Sprintf("Quote %s was converted to order %s.", q.DisplayReference(), ref.ID)
	log.Info("Quote converted", zap.String("order_id", ref.ID))
	return result
}

// markConverted patches the local copy of quote id and returns the result
func (m *Manager) markConverted(id, orderID string) *quote.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].MarkConverted(orderID)
			c := m.items[i].Copy()
			return &c
		}
	}
	return nil
}

func (m *Manager) storeFallback(ctx context.Context, order quote.FallbackOrder) error {
	if m.repo == nil {
		return errors.New("no local order repository configured")
	}
	return m.repo.Put(ctx, order)
}

func (m *Manager) release(ctx context.Context, key string) {
	if m.claims == nil {
		return
	}
	if err := m.claims.Release(context.WithoutCancel(ctx), key); err != nil {
		logger.Bind(ctx, m.logger).Warn("Failed to release conversion claim",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func jobDraft(q quote.Quote, orderID string) *job.Draft {
	return &job.Draft{
		OrderID:      orderID,
		QuoteID:      q.ID,
		Title:        q.Title,
		CustomerID:   q.CustomerID,
		CustomerName: q.CustomerName,
	}
}
