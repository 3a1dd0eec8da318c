package api

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditEntry is one change recorded by the backend audit log
type AuditEntry struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	UserID     string          `json:"userId,omitempty"`
	UserName   string          `json:"userName,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

type auditEntryWire struct {
	ID         looseString     `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   looseString     `json:"entityId"`
	Action     string          `json:"action"`
	UserID     looseString     `json:"userId"`
	UserName   string          `json:"userName"`
	Changes    json.RawMessage `json:"changes"`
	Timestamp  looseTime       `json:"timestamp"`
	CreatedAt  looseTime       `json:"createdAt"`
}

// AuditStatistics summarizes audit activity
type AuditStatistics struct {
	TotalEvents    int            `json:"totalEvents"`
	EventsByAction map[string]int `json:"eventsByAction"`
	EventsByEntity map[string]int `json:"eventsByEntity"`
}

// LegalEvidenceRequest asks the backend for a legal evidence bundle
type LegalEvidenceRequest struct {
	EntityType string     `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Reason     string     `json:"reason,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

// LegalEvidence is the backend's evidence bundle reference
type LegalEvidence struct {
	ID          string          `json:"id"`
	DocumentURL string          `json:"documentUrl,omitempty"`
	Hash        string          `json:"hash,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// AuditAPI covers the /audit endpoints
type AuditAPI struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewAuditAPI creates the audit module
func NewAuditAPI(client *httpclient.Client, logger *zap.Logger) *AuditAPI {
	return &AuditAPI{client: client, logger: logger}
}

// History lists audit entries for one entity
func (a *AuditAPI) History(ctx context.Context, entityType, entityID string) ([]AuditEntry, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method:   "GET",
		Path:     "/audit/" + url.PathEscape(entityType) + "/" + url.PathEscape(entityID),
		Endpoint: "/audit/:type/:id",
	})
	if err != nil {
		return nil, err
	}

	wires, err := DecodeList[auditEntryWire](resp.Body, AuditListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Audit history response was not fully understood", zap.Error(err))
	}
	entries := make([]AuditEntry, 0, len(wires))
	for _, w := range wires {
		ts := w.Timestamp.Time
		if ts.IsZero() {
			ts = w.CreatedAt.Time
		}
		entries = append(entries, AuditEntry{
			ID:         string(w.ID),
			EntityType: w.EntityType,
			EntityID:   string(w.EntityID),
			Action:     w.Action,
			UserID:     string(w.UserID),
			UserName:   w.UserName,
			Changes:    w.Changes,
			Timestamp:  ts,
		})
	}
	return entries, nil
}

// Statistics fetches audit statistics. Failures are logged and yield empty
// statistics so dashboards keep rendering.
func (a *AuditAPI) Statistics(ctx context.Context) AuditStatistics {
	empty := AuditStatistics{EventsByAction: map[string]int{}, EventsByEntity: map[string]int{}}

	resp, err := a.client.Do(ctx, httpclient.Request{Method: "GET", Path: "/audit/statistics"})
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Failed to load audit statistics", zap.Error(err))
		return empty
	}
	stats, err := DecodeObject[AuditStatistics](resp.Body, ObjectPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Audit statistics response was not understood", zap.Error(err))
		return empty
	}
	if stats.EventsByAction == nil {
		stats.EventsByAction = map[string]int{}
	}
	if stats.EventsByEntity == nil {
		stats.EventsByEntity = map[string]int{}
	}
	return stats
}

// GenerateLegalEvidence requests a legal evidence bundle
func (a *AuditAPI) GenerateLegalEvidence(ctx context.Context, req LegalEvidenceRequest) (*LegalEvidence, error) {
	resp, err := a.client.Post(ctx, "/audit/legal-evidence", req)
	if err != nil {
		return nil, err
	}
	evidence := &LegalEvidence{Raw: json.RawMessage(resp.Body)}
	if obj, err := DecodeObject[struct {
		ID          looseString `json:"id"`
		DocumentURL string      `json:"documentUrl"`
		Hash        string      `json:"hash"`
	}](resp.Body, ObjectPaths...); err == nil {
		evidence.ID = string(obj.ID)
		evidence.DocumentURL = obj.DocumentURL
		evidence.Hash = obj.Hash
	}
	return evidence, nil
}
