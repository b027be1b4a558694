package forecast

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// cacheEntry represents a cached forecast.
type cacheEntry struct {
	expiry time.Time
	key    string
	result model.ForecastResult
}

// resultCache is a time-boxed, size-bounded forecast cache. When full, the
// oldest insertion is evicted first.
type resultCache struct {
	entries  map[string]*list.Element
	order    *list.List // Front is the oldest insertion
	now      func() time.Time
	ttl      time.Duration
	capacity int
	mu       sync.Mutex
}

// newResultCache creates a cache. A non-positive capacity disables caching.
func newResultCache(capacity int, ttl time.Duration, now func() time.Time) *resultCache {
	if now == nil {
		now = time.Now
	}
	return &resultCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      now,
		ttl:      ttl,
		capacity: capacity,
	}
}

// get retrieves a forecast if it exists and hasn't expired.
func (c *resultCache) get(key string) (model.ForecastResult, bool) {
	if c.capacity <= 0 {
		return model.ForecastResult{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return model.ForecastResult{}, false
	}

	entry := elem.Value.(*cacheEntry)
	if !c.now().Before(entry.expiry) {
		c.remove(elem)
		return model.ForecastResult{}, false
	}

	return cloneResult(entry.result), true
}

// set stores a forecast, evicting expired entries and then the oldest ones
// until the cache fits its capacity.
func (c *resultCache) set(key string, result model.ForecastResult) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}

	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if !now.Before(elem.Value.(*cacheEntry).expiry) {
			c.remove(elem)
		}
		elem = next
	}

	for c.order.Len() >= c.capacity {
		c.remove(c.order.Front())
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{
		key:    key,
		result: cloneResult(result),
		expiry: now.Add(c.ttl),
	})
}

func (c *resultCache) remove(elem *list.Element) {
	delete(c.entries, elem.Value.(*cacheEntry).key)
	c.order.Remove(elem)
}

// size returns the number of entries in the cache, expired or not.
func (c *resultCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// clear removes all entries from the cache.
func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// cacheKey fingerprints a transaction sequence and a resolved request. Every
// field the analyses read takes part, so equal keys mean equal results.
func cacheKey(transactions []model.Transaction, start time.Time, horizonDays int) string {
	h := sha256.New()
	writeInt(h, int64(horizonDays))
	writeInt(h, start.Unix())
	writeInt(h, int64(len(transactions)))

	for _, txn := range transactions {
		writeInt(h, txn.Date.UnixNano())
		writeString(h, txn.Date.Location().String())
		writeString(h, txn.ID)
		writeString(h, txn.Name)
		writeString(h, txn.MerchantName)
		writeString(h, txn.MCCCode)
		writeString(h, txn.UserCategory)
		writeString(h, strings.Join(txn.Category, "\x1f"))
		writeFloat(h, txn.Amount)
		writeFloat(h, txn.PaymentAmount)
		writeFloat(h, txn.ReimbursementAmount)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = h.Write(buf[:])
}

func writeFloat(h hash.Hash, v float64) {
	writeInt(h, int64(math.Float64bits(v)))
}

func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	_, _ = h.Write([]byte(s))
}

// cloneResult deep-copies the slices and maps of a forecast, including the
// category lists of variable transactions, so cached values cannot be changed
// through a returned result or the caller's input.
func cloneResult(r model.ForecastResult) model.ForecastResult {
	out := r
	out.Days = slices.Clone(r.Days)
	out.Skipped = slices.Clone(r.Skipped)

	out.Classification.Fixed = slices.Clone(r.Classification.Fixed)
	for i := range out.Classification.Fixed {
		out.Classification.Fixed[i].TransactionIDs = slices.Clone(out.Classification.Fixed[i].TransactionIDs)
	}
	out.Classification.Variable = slices.Clone(r.Classification.Variable)
	for i := range out.Classification.Variable {
		out.Classification.Variable[i].Category = slices.Clone(out.Classification.Variable[i].Category)
	}
	out.Classification.Skipped = slices.Clone(r.Classification.Skipped)

	out.Pattern.Skipped = slices.Clone(r.Pattern.Skipped)
	out.Pattern.HolidayMultipliers = maps.Clone(r.Pattern.HolidayMultipliers)

	return out
}
