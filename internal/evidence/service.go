package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/canonicaljson"
	"govgate/pkg/platform/sentinel"
	"govgate/pkg/requestcontext"
)

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register stores an evidence item, deduplicating per tenant on the hash of
// the canonicalized content. Registering identical content twice returns the
// original item rather than an error.
func (s *Service) Register(ctx context.Context, tenantID id.TenantID, params NewItemParams) (*Item, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hash, err := ContentHash(params.Content)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "evidence content is not canonicalizable")
	}

	item := &Item{
		ID:          id.NewEvidenceID(),
		TenantID:    tenantID,
		Type:        strings.ToLower(strings.TrimSpace(params.Type)),
		Content:     params.Content,
		ContentHash: hash,
		CreatedAt:   requestcontext.Now(ctx),
	}

	saved, err := s.store.Save(ctx, item)
	if errors.Is(err, sentinel.ErrDuplicate) {
		s.logger.InfoContext(ctx, "evidence deduplicated",
			slog.String("tenant_id", tenantID.String()),
			slog.String("content_hash", hash),
		)
		return saved, nil
	}
	if err != nil {
		return nil, dErrors.WrapStore(err, "save evidence")
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context, tenantID id.TenantID, evidenceID id.EvidenceID) (*Item, error) {
	item, err := s.store.FindByID(ctx, tenantID, evidenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "evidence not found")
	}
	if err != nil {
		return nil, dErrors.WrapStore(err, "find evidence")
	}
	return item, nil
}

// Resolve loads the referenced items and returns them together with the set
// of type tags they carry. Any missing id fails the whole resolution.
func (s *Service) Resolve(ctx context.Context, tenantID id.TenantID, evidenceIDs []id.EvidenceID) ([]*Item, map[string]struct{}, error) {
	if len(evidenceIDs) == 0 {
		return nil, map[string]struct{}{}, nil
	}
	items, err := s.store.FindByIDs(ctx, tenantID, evidenceIDs)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "one or more evidence ids not found")
	}
	if err != nil {
		return nil, nil, dErrors.WrapStore(err, "resolve evidence")
	}

	tags := make(map[string]struct{}, len(items))
	for _, item := range items {
		tags[item.Type] = struct{}{}
	}
	return items, tags, nil
}

func (s *Service) List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*Item, error) {
	items, err := s.store.List(ctx, tenantID, offset, limit)
	if err != nil {
		return nil, dErrors.WrapStore(err, "list evidence")
	}
	return items, nil
}

// ContentHash returns the hex SHA-256 of the canonical JSON encoding of
// content. Equal content always hashes equal regardless of map ordering.
func ContentHash(content map[string]any) (string, error) {
	canonical, err := canonicaljson.Encode(content)
	if err != nil {
		return "", fmt.Errorf("canonicalize content: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
