package catalog

import (
	"strings"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ResolvePrice returns the price to charge and the chosen variant label. Services with
// variants require a valid variant index; otherwise the fixed price applies.
func (s *Service) ResolvePrice(variantIndex *int) (decimal.Decimal, string, error) {
	if len(s.Variants) > 0 {
		if variantIndex == nil {
			return decimal.Zero, "", shared.NewValidationError("variant_index", "is required for this service")
		}
		if *variantIndex < 0 || *variantIndex >= len(s.Variants) {
			return decimal.Zero, "", shared.NewValidationError("variant_index", "is out of range")
		}
		v := s.Variants[*variantIndex]
		return v.Price, v.Label, nil
	}
	if s.Price == nil || !s.Price.IsPositive() {
		return decimal.Zero, "", shared.NewValidationError("price", "is not configured for this service")
	}
	return *s.Price, "", nil
}

// RequiresInput reports whether the buyer must provide text such as a player id.
func (s *Service) RequiresInput() bool {
	return s.InputLabel != ""
}

// Validate checks the configuration of a new service.
func (s *Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return shared.NewValidationError("name", "is required")
	}
	if s.Price == nil && len(s.Variants) == 0 {
		return shared.NewValidationError("price", "a price or at least one variant is required")
	}
	if s.Price != nil {
		if err := shared.ValidateAmount("price", *s.Price); err != nil {
			return err
		}
	}
	for _, v := range s.Variants {
		if strings.TrimSpace(v.Label) == "" {
			return shared.NewValidationError("variants.label", "is required")
		}
		if err := shared.ValidateAmount("variants.price", v.Price); err != nil {
			return err
		}
	}
	return nil
}
