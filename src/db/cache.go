package db

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto"

	"smartspend-server/src/aggregate"
)

// Summary cache keys are tracked so every summary can be dropped at once.
// Each user also has a generation that every drop bumps; a summary computed
// before a drop is not stored. Without InitCache all functions below are
// no-ops.
var (
	Cache            *ristretto.Cache
	SummaryCacheKeys = struct {
		sync.RWMutex
		m     map[string]struct{}
		gen   map[int64]uint64
		epoch uint64
	}{m: make(map[string]struct{}), gen: make(map[int64]uint64)}
)

func InitCache() error {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	return nil
}

func SummaryCacheKey(userID int64) string {
	return fmt.Sprintf("summary:%d", userID)
}

func GetSummaryCache(userID int64) (aggregate.Summary, bool) {
	if Cache == nil {
		return aggregate.Summary{}, false
	}
	v, ok := Cache.Get(SummaryCacheKey(userID))
	if !ok {
		return aggregate.Summary{}, false
	}
	s, ok := v.(aggregate.Summary)
	return s, ok
}

// SummaryGeneration must be read before loading the transactions a summary
// is computed from.
func SummaryGeneration(userID int64) uint64 {
	SummaryCacheKeys.RLock()
	defer SummaryCacheKeys.RUnlock()
	return generation(userID)
}

// Both counters only grow, so their sum changes whenever either does.
func generation(userID int64) uint64 {
	return SummaryCacheKeys.epoch + SummaryCacheKeys.gen[userID]
}

// SetSummaryCache stores summary unless the user's summary was dropped after
// gen was read. It reports whether the summary was stored.
func SetSummaryCache(userID int64, gen uint64, summary aggregate.Summary) bool {
	if Cache == nil {
		return false
	}
	key := SummaryCacheKey(userID)
	SummaryCacheKeys.Lock()
	defer SummaryCacheKeys.Unlock()
	if generation(userID) != gen {
		return false
	}
	SummaryCacheKeys.m[key] = struct{}{}
	return Cache.Set(key, summary, 1)
}

// DelSummaryCache must be called after every write to a user's transactions.
func DelSummaryCache(userID int64) {
	key := SummaryCacheKey(userID)
	SummaryCacheKeys.Lock()
	defer SummaryCacheKeys.Unlock()
	SummaryCacheKeys.gen[userID]++
	delete(SummaryCacheKeys.m, key)
	if Cache != nil {
		Cache.Del(key)
	}
}

func ClearAllSummaryCaches() {
	SummaryCacheKeys.Lock()
	defer SummaryCacheKeys.Unlock()
	for key := range SummaryCacheKeys.m {
		if Cache != nil {
			Cache.Del(key)
		}
	}
	SummaryCacheKeys.epoch++
	SummaryCacheKeys.m = make(map[string]struct{})
}
