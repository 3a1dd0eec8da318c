package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Document is a rendered and stored PDF
type Document struct {
	Key       string
	URL       string
	Size      int64
	PageCount int
	PDF       []byte
}

// Service renders quote and order documents and stores the result
type Service struct {
	renderer PDFRenderer
	storage  DocumentStorage
	builder  *DocumentBuilder
	paper    PaperSize
	margins  Margins
	logger   *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithPaperSize sets the page format, A4 by default
func WithPaperSize(p PaperSize) ServiceOption {
	return func(s *Service) {
		s.paper = p
	}
}

// WithMargins sets the page margins
func WithMargins(m Margins) ServiceOption {
	return func(s *Service) {
		s.margins = m
	}
}

// WithServiceLogger sets the logger
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService wires a renderer, a storage and a document builder
func NewService(renderer PDFRenderer, storage DocumentStorage, builder *DocumentBuilder, opts ...ServiceOption) *Service {
	s := &Service{
		renderer: renderer,
		storage:  storage,
		builder:  builder,
		paper:    PaperA4,
		margins:  DefaultMargins(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuoteKey is the storage key of a quote document
func QuoteKey(q *quote.Quote) string {
	ref := q.QuoteReference
	if ref == "" {
		ref = q.ID
	}
	version := q.VersionNumber
	if version < 1 {
		version = 1
	}
	return fmt.Sprintf("quotes/%s-v%d.pdf", SanitizeKeyPart(ref), version)
}

// OrderKey is the storage key of a fallback order document
func OrderKey(o *quote.FallbackOrder) string {
	return "orders/" + SanitizeKeyPart(o.ID) + ".pdf"
}

// RenderQuote renders q and stores it under QuoteKey
func (s *Service) RenderQuote(ctx context.Context, q *quote.Quote) (*Document, error) {
	if q == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "quote is nil", nil)
	}
	html, err := s.builder.QuoteHTML(q)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, QuoteKey(q), "Quote "+q.DisplayReference(), html)
}

// RenderFallbackOrder renders a locally stored order and stores it under OrderKey
func (s *Service) RenderFallbackOrder(ctx context.Context, o *quote.FallbackOrder) (*Document, error) {
	if o == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "order is nil", nil)
	}
	html, err := s.builder.OrderHTML(o)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, OrderKey(o), "Order "+o.ID, html)
}

func (s *Service) render(ctx context.Context, key, title, html string) (*Document, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "printing.Render")
	defer span.End()
	span.SetAttributes(attribute.String("document.key", key))

	log := logger.Bind(ctx, s.logger)
	start := time.Now()

	result, err := s.renderer.Render(ctx, &RenderRequest{
		HTML:       html,
		Title:      title,
		PaperSize:  s.paper,
		Margins:    s.margins,
		FooterHTML: pageFooter,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		log.Error("Failed to render document", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	stored, err := s.storage.Store(ctx, key, result.PDFData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		log.Error("Failed to store document", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	log.Info("Document generated",
		zap.String("key", key),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", time.Since(start)))

	return &Document{
		Key:       stored.Key,
		URL:       stored.URL,
		Size:      stored.Size,
		PageCount: result.PageCount,
		PDF:       result.PDFData,
	}, nil
}

// Close releases the renderer
func (s *Service) Close() error {
	return s.renderer.Close()
}
