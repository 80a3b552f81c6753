package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"formflow-analytics/internal/app"
	"formflow-analytics/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// FormCache caches form JSON in Redis and falls back to the backing repository on a miss.
// Forms are stored as: SET formflow:form:{formID} {json} EX ttl
type FormCache struct {
	client  *redis.Client
	backing app.FormRepository
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	// genMu guards gens and is held across writes, so a fill that raced an
	// update in this process is discarded instead of caching the old form.
	genMu sync.Mutex
	gens  map[string]uint64
}

func NewFormCache(client *redis.Client, backing app.FormRepository, ttl time.Duration) *FormCache {
	return &FormCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		gens:    make(map[string]uint64),
	}
}

func (c *FormCache) GetForm(ctx context.Context, formID string) (domain.Form, error) {
	if form, ok := c.lookup(ctx, formID); ok {
		return form, nil
	}

	result, err, _ := c.sf.Do(formID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if form, ok := c.lookup(ctx, formID); ok {
			return form, nil
		}
		gen := c.generation(formID)
		form, err := c.backing.GetForm(ctx, formID)
		if err != nil {
			return domain.Form{}, err
		}
		c.fill(ctx, form, gen)
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
	c.store(ctx, form)
	return nil
}

func (c *FormCache) UpdateForm(ctx context.Context, formID string, fn func(*domain.Form) error) (domain.Form, error) {
	c.genMu.Lock()
	c.gens[formID]++
	_ = c.client.Del(ctx, c.key(formID)).Err()
	c.genMu.Unlock()

	form, err := c.backing.UpdateForm(ctx, formID, fn)
	if err != nil {
		return domain.Form{}, err
	}

	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.gens[formID]++
	c.store(ctx, form)
	return form, nil
}

func (c *FormCache) ListForms(ctx context.Context) ([]domain.Form, error) {
	return c.backing.ListForms(ctx)
}

func (c *FormCache) lookup(ctx context.Context, formID string) (domain.Form, bool) {
	raw, err := c.client.Get(ctx, c.key(formID)).Bytes()
	if err != nil {
		return domain.Form{}, false
	}
	var form domain.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return domain.Form{}, false
	}
	return form, true
}

// store is best-effort; a failed write only costs a later cache miss.
func (c *FormCache) store(ctx context.Context, form domain.Form) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(form)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(form.ID), raw, ttl).Err()
}

func (c *FormCache) generation(formID string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gens[formID]
}

// fill caches a form read from the backing repository unless it was updated
// since gen was taken.
func (c *FormCache) fill(ctx context.Context, form domain.Form, gen uint64) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.gens[form.ID] != gen {
		return
	}
	c.store(ctx, form)
}

func (c *FormCache) key(formID string) string {
	return "formflow:form:" + formID
}

func (c *FormCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
