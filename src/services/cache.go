package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradebook/backend/src/logger"
)

const (
	ckPositionsAccount = "positions_account_%d"
	ckPositionsAll     = "positions_all"

	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

// NewPositionCache returns the cache holding position listings.
func NewPositionCache(ttl time.Duration) *cache.Cache {
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	return cache.New(ttl, CacheCleanupInterval)
}

func positionsCacheKey(accountID *int64) string {
	if accountID == nil {
		return ckPositionsAll
	}
	return fmt.Sprintf(ckPositionsAccount, *accountID)
}

// invalidatePositions drops cached listings affected by a change in scope.
// A nil accountID touches every account.
func invalidatePositions(c *cache.Cache, accountID *int64) {
	if c == nil {
		return
	}
	if accountID == nil {
		c.Flush()
		logger.L.Debug("Invalidated all position caches")
		return
	}
	c.Delete(positionsCacheKey(accountID))
	c.Delete(ckPositionsAll)
	logger.L.Debug("Invalidated position caches", "accountID", *accountID)
}
