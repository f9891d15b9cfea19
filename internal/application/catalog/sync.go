package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "storefront/internal/domain/catalog"
	"storefront/internal/domain/repository"
	"storefront/pkg/logger"
)

// productNamespace derives stable ids for records that do not carry one, so
// re-running a seed updates products instead of duplicating them.
var productNamespace = uuid.MustParse("6f1c1c3e-2b7a-4d0e-9a51-3c2f8e7b9d10")

// ProductFetcher abstracts where product records come from (HTTP feed, seed file).
type ProductFetcher interface {
	FetchProducts(ctx context.Context) ([]json.RawMessage, error)
}

type productRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	Active      *bool           `json:"active,omitempty"`
}

type SyncResult struct {
	Fetched  int
	Upserted int
	Skipped  int
}

type SyncService struct {
	fetcher ProductFetcher
	writer  repository.CatalogWriter
	logger  logger.Logger
}

func NewSyncService(fetcher ProductFetcher, writer repository.CatalogWriter, log logger.Logger) *SyncService {
	return &SyncService{fetcher: fetcher, writer: writer, logger: log}
}

// Sync fetches every record and upserts the valid ones. Invalid records are
// skipped and counted. With dryRun nothing is written.
func (s *SyncService) Sync(ctx context.Context, dryRun bool) (SyncResult, error) {
	raws, err := s.fetcher.FetchProducts(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch products: %w", err)
	}

	res := SyncResult{Fetched: len(raws)}
	for i, raw := range raws {
		p, err := decodeProduct(raw)
		if err != nil {
			res.Skipped++
			s.logger.Warn("skip product record", logger.Int("index", i), logger.Error(err))
			continue
		}
		if dryRun {
			res.Upserted++
			continue
		}
		if err := s.writer.UpsertProduct(ctx, p); err != nil {
			return res, fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		res.Upserted++
	}

	s.logger.Info("catalog sync finished",
		logger.Int("fetched", res.Fetched),
		logger.Int("upserted", res.Upserted),
		logger.Int("skipped", res.Skipped),
		logger.Bool("dry_run", dryRun),
	)
	return res, nil
}

func decodeProduct(raw json.RawMessage) (*domain.Product, error) {
	var rec productRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	category, err := domain.ParseCategory(strings.ToLower(strings.TrimSpace(rec.Category)))
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = uuid.NewSHA1(productNamespace, []byte(strings.TrimSpace(rec.Name))).String()
	}

	p, err := domain.NewProduct(id, rec.Name, rec.Description, rec.Price, category, rec.Stock)
	if err != nil {
		return nil, err
	}
	p.ImageURL = rec.Image
	if rec.Active != nil {
		p.Active = *rec.Active
	}
	return p, nil
}
