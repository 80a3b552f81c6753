package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"formflow-analytics/internal/app"
	"formflow-analytics/internal/domain"
	"golang.org/x/sync/singleflight"
)

// FormCache caches forms with TTL in front of a slower FormRepository.
// Writes go through to the backing repository and refresh the cache.
// A fill that started before an update never overwrites the updated entry.
type FormCache struct {
	backing app.FormRepository
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedForm
	// gens counts updates per form; fills only land if it did not move.
	gens map[string]uint64
}

type cachedForm struct {
	form      domain.Form
	expiresAt time.Time
}

func NewFormCache(backing app.FormRepository, ttl time.Duration) *FormCache {
	return &FormCache{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedForm),
		gens:    make(map[string]uint64),
	}
}

func (c *FormCache) GetForm(ctx context.Context, formID string) (domain.Form, error) {
	if form, ok := c.lookup(formID); ok {
		return form, nil
	}

	result, err, _ := c.sf.Do(formID, func() (interface{}, error) {
		if form, ok := c.lookup(formID); ok {
			return form, nil
		}
		gen := c.generation(formID)
		form, err := c.backing.GetForm(ctx, formID)
		if err != nil {
			return domain.Form{}, err
		}
		c.fill(form, gen)
		return form, nil
	})
	if err != nil {
		return domain.Form{}, err
	}
	return result.(domain.Form), nil
}

func (c *FormCache) SaveForm(ctx context.Context, form domain.Form) error {
	if err := c.backing.SaveForm(ctx, form); err != nil {
		return err
	}
	c.store(form)
	return nil
}

func (c *FormCache) UpdateForm(ctx context.Context, formID string, fn func(*domain.Form) error) (domain.Form, error) {
	c.invalidate(formID)
	form, err := c.backing.UpdateForm(ctx, formID, fn)
	if err != nil {
		return domain.Form{}, err
	}
	c.mu.Lock()
	c.gens[formID]++
	c.put(form)
	c.mu.Unlock()
	return form, nil
}

func (c *FormCache) ListForms(ctx context.Context) ([]domain.Form, error) {
	return c.backing.ListForms(ctx)
}

func (c *FormCache) lookup(formID string) (domain.Form, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[formID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Form{}, false
	}
	return entry.form, true
}

func (c *FormCache) store(form domain.Form) {
	c.mu.Lock()
	c.put(form)
	c.mu.Unlock()
}

// fill stores a form read from the backing repository unless an update
// happened since gen was taken.
func (c *FormCache) fill(form domain.Form, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[form.ID] != gen {
		return
	}
	c.put(form)
}

// put requires c.mu held for writing.
func (c *FormCache) put(form domain.Form) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	c.cache[form.ID] = cachedForm{form: form, expiresAt: c.clock().Add(ttl)}
}

func (c *FormCache) generation(formID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[formID]
}

func (c *FormCache) invalidate(formID string) {
	c.mu.Lock()
	c.gens[formID]++
	delete(c.cache, formID)
	c.mu.Unlock()
}

func (c *FormCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
