package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	Conditions = []string{"mint", "near_mint", "excellent", "good", "fair", "poor"}
	Rarities   = []string{"common", "uncommon", "rare", "ultra_rare", "legendary"}
)

type Category struct {
	ID        uint64    `json:"category_id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Product is a trinket listing. Inactive products are soft-deleted: they stay
// referenced by historical orders but are hidden from the catalog.
type Product struct {
	ID                   uint64              `json:"product_id" gorm:"primaryKey;autoIncrement"`
	Name                 string              `json:"name" gorm:"size:255;not null"`
	CategoryID           *uint64             `json:"category_id" gorm:"index"`
	Category             *Category           `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Subcategory          string              `json:"subcategory" gorm:"size:100"`
	Brand                string              `json:"brand" gorm:"size:100"`
	Description          string              `json:"description" gorm:"type:text"`
	ImageURL             string              `json:"image_url" gorm:"size:500"`
	Price                decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	StockQuantity        int                 `json:"stock_quantity" gorm:"not null;default:0;check:chk_products_stock,stock_quantity >= 0"`
	IsActive             bool                `json:"is_active" gorm:"not null;default:true;index"`
	Condition            string              `json:"condition" gorm:"size:20;index"`
	Rarity               string              `json:"rarity" gorm:"size:20;index"`
	YearManufactured     *int                `json:"year_manufactured" gorm:"index"`
	Material             string              `json:"material" gorm:"size:100"`
	Dimensions           string              `json:"dimensions" gorm:"size:100"`
	AuthenticityVerified bool                `json:"authenticity_verified" gorm:"not null;default:false"`
	SuggestedPrice       decimal.NullDecimal `json:"suggested_price" gorm:"type:decimal(10,2)"`
	MarketAverage        decimal.NullDecimal `json:"market_average" gorm:"type:decimal(10,2)"`
	CreatedAt            time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if p.Price.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	if p.StockQuantity < 0 {
		return NewValidationError("stock_quantity", "must not be negative")
	}
	if err := validateVocabulary("condition", p.Condition, Conditions); err != nil {
		return err
	}
	return validateVocabulary("rarity", p.Rarity, Rarities)
}

// MatchesKeyword is the case-insensitive name/description/brand match used by search.
func (p *Product) MatchesKeyword(keyword string) bool {
	kw := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(p.Name), kw) ||
		strings.Contains(strings.ToLower(p.Description), kw) ||
		strings.Contains(strings.ToLower(p.Brand), kw)
}

func validateVocabulary(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}
	return NewValidationError(field, "must be one of "+strings.Join(allowed, ", "))
}

// ProductUpdate lists the product fields a client may change. A nil field is
// left untouched.
type ProductUpdate struct {
	Name                 *string          `json:"name"`
	CategoryID           *uint64          `json:"category_id"`
	Subcategory          *string          `json:"subcategory"`
	Brand                *string          `json:"brand"`
	Description          *string          `json:"description"`
	ImageURL             *string          `json:"image_url"`
	Price                *decimal.Decimal `json:"price"`
	StockQuantity        *int             `json:"stock_quantity"`
	Condition            *string          `json:"condition"`
	Rarity               *string          `json:"rarity"`
	YearManufactured     *int             `json:"year_manufactured"`
	Material             *string          `json:"material"`
	Dimensions           *string          `json:"dimensions"`
	AuthenticityVerified *bool            `json:"authenticity_verified"`
}

func (u ProductUpdate) Empty() bool {
	return u == ProductUpdate{}
}

func (u ProductUpdate) Apply(p *Product) {
	setIf(&p.Name, u.Name)
	if u.CategoryID != nil {
		id := *u.CategoryID
		p.CategoryID = &id
		p.Category = nil
	}
	setIf(&p.Subcategory, u.Subcategory)
	setIf(&p.Brand, u.Brand)
	setIf(&p.Description, u.Description)
	setIf(&p.ImageURL, u.ImageURL)
	setIf(&p.Price, u.Price)
	setIf(&p.StockQuantity, u.StockQuantity)
	setIf(&p.Condition, u.Condition)
	setIf(&p.Rarity, u.Rarity)
	if u.YearManufactured != nil {
		year := *u.YearManufactured
		p.YearManufactured = &year
	}
	setIf(&p.Material, u.Material)
	setIf(&p.Dimensions, u.Dimensions)
	setIf(&p.AuthenticityVerified, u.AuthenticityVerified)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
