package diagram

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/namanNagelia/canvasAgents/logging"
)

// Outcome is a finished render attempt, successful or not.
type Outcome struct {
	Result Result
	Err    error
}

// Placeholder returns the text shown when the render failed.
func (o Outcome) Placeholder() string {
	return Placeholder(o.Err)
}

// Cache renders each distinct source once. Concurrent requests for the
// same source share one render call.
type Cache struct {
	renderer Renderer
	group    singleflight.Group

	mu   sync.RWMutex
	done map[string]Outcome
}

func NewCache(r Renderer) *Cache {
	if r == nil {
		r = CheckRenderer{}
	}
	return &Cache{renderer: r, done: make(map[string]Outcome)}
}

// Lookup returns a finished outcome for code, if any.
func (c *Cache) Lookup(code string) (Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.done[code]
	return o, ok
}

// renderTimeout bounds a shared render, which outlives any one caller.
const renderTimeout = 60 * time.Second

// Render returns the cached outcome for code or renders it. Failures are
// cached too; a source that failed once is not retried. A caller whose ctx
// ends stops waiting, but the shared render keeps going for the others.
func (c *Cache) Render(ctx context.Context, code string) Outcome {
	if o, ok := c.Lookup(code); ok {
		return o
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Err: err}
	}

	ch := c.group.DoChan(code, func() (interface{}, error) {
		if o, ok := c.Lookup(code); ok {
			return o, nil
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renderTimeout)
		defer cancel()

		res, err := c.renderer.Render(rctx, code)
		o := Outcome{Result: res, Err: err}
		if err != nil {
			logging.Get(logging.CategoryDiagram).Warn("diagram render failed", zap.Error(err))
			// a timed-out render says nothing about the source
			if rctx.Err() != nil {
				return o, nil
			}
		}
		c.mu.Lock()
		c.done[code] = o
		c.mu.Unlock()
		return o, nil
	})

	select {
	case <-ctx.Done():
		return Outcome{Err: ctx.Err()}
	case r := <-ch:
		return r.Val.(Outcome)
	}
}

// Len reports how many sources have a finished outcome.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.done)
}
