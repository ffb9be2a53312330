// Package holiday resolves holiday dates for metrics computation. The
// resolver is consumed as a collaborator: callers pre-fetch the holiday
// set and hand it to the calculator, which never performs I/O itself.
package holiday

import (
	"sync"
	"time"

	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/models"
	"gorm.io/gorm"
)

// Resolver returns the holidays overlapping [start, end]. Pure read.
type Resolver interface {
	GetHolidays(start, end time.Time) ([]models.Holiday, error)
}

// StoreResolver reads holidays from the holidays table.
type StoreResolver struct {
	DB *gorm.DB
}

// GetHolidays returns holidays in [start, end], ordered by date. A
// store failure surfaces as ExternalServiceError: silently returning an
// empty set would undercount holiday exposure.
func (r *StoreResolver) GetHolidays(start, end time.Time) ([]models.Holiday, error) {
	var holidays []models.Holiday
	err := r.DB.Where("date >= ? AND date <= ?", start, end).
		Order("date ASC").Find(&holidays).Error
	if err != nil {
		return nil, &errs.ExternalServiceError{Service: "holiday resolver", Err: err}
	}
	return holidays, nil
}

// CachedResolver memoizes GetHolidays per date range. Invalidate is
// called whenever the administrator changes the active period's start
// date or cycle count.
type CachedResolver struct {
	Inner Resolver

	mu    sync.Mutex
	cache map[string][]models.Holiday
}

// NewCachedResolver wraps a resolver with a range-keyed cache.
func NewCachedResolver(inner Resolver) *CachedResolver {
	return &CachedResolver{
		Inner: inner,
		cache: make(map[string][]models.Holiday),
	}
}

// GetHolidays serves from cache when possible.
func (r *CachedResolver) GetHolidays(start, end time.Time) ([]models.Holiday, error) {
	key := start.Format("2006-01-02") + "|" + end.Format("2006-01-02")

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	holidays, err := r.Inner.GetHolidays(start, end)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = holidays
	r.mu.Unlock()
	return holidays, nil
}

// Invalidate drops every cached range.
func (r *CachedResolver) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string][]models.Holiday)
	r.mu.Unlock()
}
