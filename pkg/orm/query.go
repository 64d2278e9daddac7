// Package orm holds small gorm helpers shared by the repositories.
package orm

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/logger"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination is returned alongside every paged listing.
type Pagination struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// Paginate counts the rows matched by q and loads one page into dest.
// q must already carry its Model, filters and ordering.
func Paginate(q *gorm.DB, page, perPage int, dest any) (Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	if err := q.Session(&gorm.Session{}).Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error; err != nil {
		return Pagination{}, err
	}

	last := int(math.Ceil(float64(total) / float64(perPage)))
	if last < 1 {
		last = 1
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, LastPage: last}, nil
}

// Remember serves dest from store when present, otherwise runs load and
// caches the result for ttl. Cache failures only cost a reload.
func Remember(ctx context.Context, store cache.Store, key string, ttl time.Duration, dest any, load func() error) error {
	if store != nil {
		found, err := store.Get(ctx, key, dest)
		if err != nil {
			logger.WithCtx(ctx).Warn("orm: cache read failed", "key", key, "error", err)
		}
		if found && err == nil {
			return nil
		}
	}

	if err := load(); err != nil {
		return err
	}

	if store != nil {
		if err := store.Set(ctx, key, dest, ttl); err != nil {
			logger.WithCtx(ctx).Warn("orm: cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

// Forget drops cached keys.
func Forget(ctx context.Context, store cache.Store, keys ...string) {
	if store == nil {
		return
	}
	if err := store.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("orm: cache delete failed", "keys", keys, "error", err)
	}
}
