package usecase

import (
	"fmt"
	"net/url"

	"SignalDesk/internal/domain/models"
	"SignalDesk/pkg/util"
)

// SymbolResolver maps user supplied instrument names onto configured assets.
// "EUR/USD", "EUR%2FUSD", "eurusd" and "EUR-USD" resolve to the same asset.
type SymbolResolver struct {
	assets  []models.Asset
	byCanon map[string]models.Asset
}

func NewSymbolResolver(assets []models.Asset) *SymbolResolver {
	r := &SymbolResolver{
		assets:  append([]models.Asset(nil), assets...),
		byCanon: make(map[string]models.Asset, len(assets)),
	}
	for _, a := range assets {
		r.byCanon[util.CanonicalSymbol(a.Key)] = a
	}
	return r
}

func (r *SymbolResolver) Resolve(raw string) (models.Asset, error) {
	s, err := url.PathUnescape(raw)
	if err != nil {
		s = raw
	}
	if a, ok := r.byCanon[util.CanonicalSymbol(s)]; ok {
		return a, nil
	}
	return models.Asset{}, fmt.Errorf("%q: %w", raw, models.ErrUnknownSymbol)
}

// Keys lists the configured instrument keys in configuration order.
func (r *SymbolResolver) Keys() []string {
	keys := make([]string, 0, len(r.assets))
	for _, a := range r.assets {
		keys = append(keys, a.Key)
	}
	return keys
}

func (r *SymbolResolver) Assets() []models.Asset {
	return append([]models.Asset(nil), r.assets...)
}
