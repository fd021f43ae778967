package audit

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/uptrace/bun"

	"scanlog/models"
)

const (
	ActionScanCreate = "scan.create"
	ActionScansClear = "scans.clear"
)

// Service writes audit records inside the caller transaction. A nil Service
// records nothing.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Write(ctx context.Context, tx bun.Tx, clientID, action, entityType, entityID string, before, after any) error {
	if s == nil {
		return nil
	}
	beforeJSON, err := marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return err
	}
	log := &models.AuditLog{
		ClientID:   clientID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	_, err = tx.NewInsert().Model(log).Exec(ctx)
	return err
}

// ScanCreated records a newly stored scan.
func (s *Service) ScanCreated(ctx context.Context, tx bun.Tx, clientID string, scan models.Scan) error {
	return s.Write(ctx, tx, clientID, ActionScanCreate, "scans", strconv.FormatInt(scan.ID, 10), nil, scan)
}

// ScansCleared records a bulk delete and how many rows it removed.
func (s *Service) ScansCleared(ctx context.Context, tx bun.Tx, clientID string, removed int64) error {
	return s.Write(ctx, tx, clientID, ActionScansClear, "scans", "*", map[string]int64{"count": removed}, nil)
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
