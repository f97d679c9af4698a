package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	megabyte = 1024 * 1024

	recordsKeyPrefix = "records||"
)

// RecordsCache keeps recently loaded collections in memory so repeated
// analytics requests don't hit the record store. It never writes to the store.
type RecordsCache struct {
	cache Cache
	ttl   time.Duration
}

func NewRecordsCache(sizeMB int, ttl time.Duration) *RecordsCache {
	if sizeMB <= 0 {
		sizeMB = 16
	}
	return NewRecordsCacheWith(freecache.NewCache(sizeMB*megabyte), ttl)
}

func NewRecordsCacheWith(cache Cache, ttl time.Duration) *RecordsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RecordsCache{
		cache: cache,
		ttl:   ttl,
	}
}

func recordsKey(collection string) []byte {
	return []byte(recordsKeyPrefix + collection)
}

// Get returns the cached sessions of a collection. Corrupted entries are
// dropped and reported as a miss.
func (c *RecordsCache) Get(collection string) ([]records.Session, bool) {
	payload, err := c.cache.Get(recordsKey(collection))
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			log.Warnf("records cache get [%s]: %s", collection, err)
		}
		return nil, false
	}

	var sessions []records.Session
	if err := json.Unmarshal(payload, &sessions); err != nil {
		log.Errorf("records cache, unmarshal [%s]: %s", collection, err)
		c.cache.Del(recordsKey(collection))
		return nil, false
	}
	if sessions == nil {
		sessions = []records.Session{}
	}

	return sessions, true
}

func (c *RecordsCache) Set(collection string, sessions []records.Session) error {
	payload, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}
	if err := c.cache.Set(recordsKey(collection), payload, int(c.ttl.Seconds())); err != nil {
		return fmt.Errorf("cache set %s: %w", collection, err)
	}
	return nil
}

func (c *RecordsCache) Invalidate(collection string) {
	c.cache.Del(recordsKey(collection))
}

func (c *RecordsCache) Clear() {
	c.cache.Clear()
}
