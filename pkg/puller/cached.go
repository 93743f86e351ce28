// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package puller

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

const cachedRecordsKey = "records"

// PullFunc produces the current records for one measurement class.
type PullFunc func() ([]*measurement.Record, bool)

// CachedPuller is the base most pullers embed or wrap. Within the
// cooldown window a successful pull result is served from cache
// instead of hitting the backing source again. A zero cooldown
// disables caching.
type CachedPuller struct {
	id         measurement.ID
	coolDownNs int64
	pull       PullFunc

	mu         sync.Mutex
	cache      *gocache.Cache
	lastPullNs int64

	// swapped in tests
	nowNs func() int64
}

// NewCachedPuller wraps pull with a cooldown cache for id.
func NewCachedPuller(id measurement.ID, coolDownNs int64, pull PullFunc) *CachedPuller {
	return &CachedPuller{
		id:         id,
		coolDownNs: coolDownNs,
		pull:       pull,
		cache:      gocache.New(gocache.NoExpiration, 0),
		nowNs:      defaultMonotonicNow,
	}
}

// Pull returns cached records while they are fresh, otherwise invokes
// the backing pull and caches its result on success.
func (c *CachedPuller) Pull() ([]*measurement.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, found := c.cache.Get(cachedRecordsKey); found {
		log.Tracef("measurement %d served from puller cache", c.id)
		return cached.([]*measurement.Record), true
	}

	records, ok := c.pull()
	if ok && c.coolDownNs > 0 {
		c.cache.Set(cachedRecordsKey, records, time.Duration(c.coolDownNs))
		c.lastPullNs = c.nowNs()
	}
	return records, ok
}

// ForceClearCache drops any cached records and returns how many
// entries were evicted.
func (c *CachedPuller) ForceClearCache() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearLocked()
}

// ClearCacheIfStale drops cached records if the last pull happened
// more than a cooldown ago on the scheduling clock.
func (c *CachedPuller) ClearCacheIfStale(nowNs int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastPullNs == 0 || nowNs-c.lastPullNs <= c.coolDownNs {
		return 0
	}
	return c.clearLocked()
}

func (c *CachedPuller) clearLocked() int {
	cleared := c.cache.ItemCount()
	if cleared > 0 {
		c.cache.Flush()
		c.lastPullNs = 0
	}
	return cleared
}

var processStart = time.Now()

// defaultMonotonicNow is the scheduling clock: monotonic nanoseconds
// since process start.
func defaultMonotonicNow() int64 {
	return int64(time.Since(processStart))
}
