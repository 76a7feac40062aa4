package domain

import "github.com/shopspring/decimal"

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Page is an offset/limit window over an id-ordered result set.
type Page struct {
	Skip  int
	Limit int
}

func NewPage(skip, limit int) Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Skip: skip, Limit: limit}
}

// Window applies the page to an already ordered slice length n.
func (p Page) Window(n int) (start, end int) {
	start = p.Skip
	if start > n {
		start = n
	}
	end = start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

// ProductFilter is a conjunction of optional criteria. A nil field is not
// constrained; a non-nil zero value is.
type ProductFilter struct {
	CategoryID           *uint64
	Condition            *string
	Rarity               *string
	YearMin              *int
	YearMax              *int
	PriceMin             *decimal.Decimal
	PriceMax             *decimal.Decimal
	AuthenticityVerified *bool
	Page                 Page
}

func (f ProductFilter) Validate() error {
	if f.YearMin != nil && f.YearMax != nil && *f.YearMin > *f.YearMax {
		return NewValidationError("year_min", "must not exceed year_max")
	}
	if f.PriceMin != nil && f.PriceMax != nil && f.PriceMin.GreaterThan(*f.PriceMax) {
		return NewValidationError("price_min", "must not exceed price_max")
	}
	if f.Condition != nil {
		if err := validateVocabulary("condition", *f.Condition, Conditions); err != nil {
			return err
		}
	}
	if f.Rarity != nil {
		if err := validateVocabulary("rarity", *f.Rarity, Rarities); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether an active product satisfies every supplied criterion.
func (f ProductFilter) Matches(p *Product) bool {
	if !p.IsActive {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Condition != nil && p.Condition != *f.Condition {
		return false
	}
	if f.Rarity != nil && p.Rarity != *f.Rarity {
		return false
	}
	if f.YearMin != nil && (p.YearManufactured == nil || *p.YearManufactured < *f.YearMin) {
		return false
	}
	if f.YearMax != nil && (p.YearManufactured == nil || *p.YearManufactured > *f.YearMax) {
		return false
	}
	if f.PriceMin != nil && p.Price.LessThan(*f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && p.Price.GreaterThan(*f.PriceMax) {
		return false
	}
	if f.AuthenticityVerified != nil && p.AuthenticityVerified != *f.AuthenticityVerified {
		return false
	}
	return true
}
