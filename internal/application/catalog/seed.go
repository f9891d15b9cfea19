package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	domain "storefront/internal/domain/catalog"
)

//go:embed seed_products.json
var defaultSeed []byte

// SeedFetcher serves product records from a JSON array.
type SeedFetcher struct {
	data []byte
}

// DefaultSeed is the bar's starting menu.
func DefaultSeed() *SeedFetcher {
	return &SeedFetcher{data: defaultSeed}
}

func NewSeedFetcher(data []byte) *SeedFetcher {
	return &SeedFetcher{data: data}
}

func SeedFromFile(path string) (*SeedFetcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return &SeedFetcher{data: data}, nil
}

func (f *SeedFetcher) FetchProducts(ctx context.Context) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []json.RawMessage
	if err := json.Unmarshal(f.data, &records); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return records, nil
}

// SeedProducts decodes the default seed into domain products, skipping
// nothing: a broken embedded seed is a programming error.
func SeedProducts() ([]domain.Product, error) {
	raws, err := DefaultSeed().FetchProducts(context.Background())
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(raws))
	for i, raw := range raws {
		p, err := decodeProduct(raw)
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		out = append(out, *p)
	}
	return out, nil
}
