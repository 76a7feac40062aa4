package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"trinket-service/internal/domain"
)

func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, domain.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func queryPage(c *gin.Context) (domain.Page, error) {
	skip, err := queryInt(c, "skip")
	if err != nil {
		return domain.Page{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return domain.Page{}, err
	}

	var s, l int
	if skip != nil {
		if *skip < 0 {
			return domain.Page{}, domain.NewValidationError("skip", "must not be negative")
		}
		s = *skip
	}
	if limit != nil {
		if *limit < 1 || *limit > domain.MaxLimit {
			return domain.Page{}, domain.NewValidationError("limit", "must be between 1 and "+strconv.Itoa(domain.MaxLimit))
		}
		l = *limit
	}
	return domain.NewPage(s, l), nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be an integer")
	}
	return &v, nil
}

func queryUint(c *gin.Context, key string) (*uint64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be a positive integer")
	}
	return &v, nil
}

func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be a decimal number")
	}
	return &v, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be true or false")
	}
	return &v, nil
}

func queryString(c *gin.Context, key string) *string {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}
	return &raw
}

// productFilter reads the catalog filter from the query string. It reports
// whether any criterion besides category was given.
func productFilter(c *gin.Context) (domain.ProductFilter, bool, error) {
	var (
		f   domain.ProductFilter
		err error
	)
	if f.Page, err = queryPage(c); err != nil {
		return f, false, err
	}
	if f.CategoryID, err = queryUint(c, "category_id"); err != nil {
		return f, false, err
	}
	f.Condition = queryString(c, "condition")
	f.Rarity = queryString(c, "rarity")
	if f.YearMin, err = queryInt(c, "year_min"); err != nil {
		return f, false, err
	}
	if f.YearMax, err = queryInt(c, "year_max"); err != nil {
		return f, false, err
	}
	if f.PriceMin, err = queryDecimal(c, "price_min"); err != nil {
		return f, false, err
	}
	if f.PriceMax, err = queryDecimal(c, "price_max"); err != nil {
		return f, false, err
	}
	if f.AuthenticityVerified, err = queryBool(c, "authenticity_verified"); err != nil {
		return f, false, err
	}

	filtered := f.Condition != nil || f.Rarity != nil ||
		f.YearMin != nil || f.YearMax != nil ||
		f.PriceMin != nil || f.PriceMax != nil ||
		f.AuthenticityVerified != nil
	return f, filtered, nil
}
