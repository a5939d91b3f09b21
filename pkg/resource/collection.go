package resource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Collection is an ordered list of models served as a JSON array.
type Collection struct {
	notifier

	mu        sync.RWMutex
	transport Transport
	opts      Options
	models    []*Model
	state     State
}

// NewCollection creates an empty collection rooted at opts.Path. Items share
// opts as their binding.
func NewCollection(transport Transport, opts Options) *Collection {
	opts.Singleton = false
	return &Collection{
		transport: transport,
		opts:      opts,
	}
}

// State returns the load state.
func (c *Collection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Models returns the items in order.
func (c *Collection) Models() []*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Model, len(c.models))
	copy(out, c.models)
	return out
}

// Len returns the number of items.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Find returns the item with the given id.
func (c *Collection) Find(id string) (*Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.models {
		if m.ID() == id {
			return m, true
		}
	}
	return nil, false
}

// New builds an unsaved item bound to this collection.
func (c *Collection) New(attrs Attributes) *Model {
	m := NewModel(c.transport, c.opts, attrs)
	m.collection = c
	return m
}

// Fetch replaces the items with the server's list.
func (c *Collection) Fetch(ctx context.Context) error {
	var items []Attributes
	if err := c.transport.Do(ctx, http.MethodGet, c.opts.Path, nil, &items); err != nil {
		return fmt.Errorf("fetch %s: %w", c.opts.Path, err)
	}

	models := make([]*Model, 0, len(items))
	for _, item := range items {
		m := c.New(item)
		m.state = Loaded
		models = append(models, m)
	}

	c.mu.Lock()
	c.models = models
	c.state = Loaded
	c.mu.Unlock()

	c.notify()
	return nil
}

// Create saves a new item and appends it once the server stored it.
func (c *Collection) Create(ctx context.Context, attrs Attributes) (*Model, error) {
	m := c.New(attrs)
	if err := m.Save(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.models = append(c.models, m)
	c.mu.Unlock()

	c.notify()
	return m, nil
}

func (c *Collection) remove(target *Model) {
	c.mu.Lock()
	removed := false
	for i, m := range c.models {
		if m == target {
			c.models = append(c.models[:i], c.models[i+1:]...)
			removed = true
			break
		}
	}
	c.mu.Unlock()

	target.mu.Lock()
	target.collection = nil
	target.mu.Unlock()

	if removed {
		c.notify()
	}
}
