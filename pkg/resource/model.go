// Package resource binds flat JSON objects served by a REST endpoint to
// observable in-memory models.
package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
)

// ErrReadOnly is returned when saving a model bound to a read-only resource.
var ErrReadOnly = errors.New("resource is read-only")

// Transport performs a JSON request against the API. *client.Client
// satisfies it.
type Transport interface {
	Do(ctx context.Context, method, path string, body, out interface{}) error
}

// State is the load state of a model or collection.
type State int

const (
	// Unloaded means no fetch has succeeded yet.
	Unloaded State = iota
	// Loaded means the model holds server data.
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Attributes is a flat set of resource fields.
type Attributes map[string]interface{}

// Clone returns a shallow copy of a.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ParseFunc turns raw server fields into display fields. It receives a copy
// and may modify it.
type ParseFunc func(raw Attributes) Attributes

// Options describe the resource a model is bound to.
type Options struct {
	// Path is the endpoint, or the collection root for items.
	Path string
	// Parse transforms fetched fields; nil keeps them as they are.
	Parse ParseFunc
	// Defaults are merged under the raw fields on save.
	Defaults Attributes
	// ReadOnly models refuse to save.
	ReadOnly bool
	// Singleton models always PUT to Path.
	Singleton bool
	// IDField names the identifier field, "id" when empty.
	IDField string
}

func (o Options) idField() string {
	if o.IDField == "" {
		return "id"
	}
	return o.IDField
}

// Model holds the fields of one resource. Raw fields are what the server
// sent or what was set locally; display fields are the raw fields passed
// through the parse transform. Only raw fields are ever written back.
type Model struct {
	notifier

	mu         sync.RWMutex
	transport  Transport
	opts       Options
	raw        Attributes
	attrs      Attributes
	state      State
	collection *Collection
}

// NewModel creates an unloaded model. initial seeds the raw fields.
func NewModel(transport Transport, opts Options, initial Attributes) *Model {
	m := &Model{
		transport: transport,
		opts:      opts,
	}
	m.assign(initial)
	return m
}

// assign replaces the raw fields and recomputes the display fields.
// Callers hold m.mu or own m exclusively.
func (m *Model) assign(raw Attributes) {
	if raw == nil {
		raw = Attributes{}
	}
	m.raw = raw.Clone()
	if m.opts.Parse != nil {
		m.attrs = m.opts.Parse(raw.Clone())
	} else {
		m.attrs = raw.Clone()
	}
	if m.attrs == nil {
		m.attrs = Attributes{}
	}
}

// ID returns the identifier, empty for new or singleton models.
func (m *Model) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id()
}

func (m *Model) id() string {
	v, ok := m.raw[m.opts.idField()]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsNew reports whether the model has never been stored by the server.
func (m *Model) IsNew() bool {
	return !m.opts.Singleton && m.ID() == ""
}

// URL returns the endpoint of this model.
func (m *Model) URL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.url()
}

func (m *Model) url() string {
	if m.opts.Singleton {
		return m.opts.Path
	}
	if id := m.id(); id != "" {
		return m.opts.Path + "/" + id
	}
	return m.opts.Path
}

// State returns the load state.
func (m *Model) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Get returns a display field.
func (m *Model) Get(key string) interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attrs[key]
}

// Attributes returns a copy of the display fields.
func (m *Model) Attributes() Attributes {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attrs.Clone()
}

// Raw returns a copy of the raw fields.
func (m *Model) Raw() Attributes {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw.Clone()
}

// Set changes one raw field. Subscribers are notified only when the value
// actually changed. It reports whether it did.
func (m *Model) Set(key string, value interface{}) bool {
	return m.SetAll(Attributes{key: value})
}

// SetAll changes several raw fields at once with a single notification.
func (m *Model) SetAll(values Attributes) bool {
	m.mu.Lock()
	raw := m.raw.Clone()
	changed := false
	for k, v := range values {
		if old, ok := raw[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		raw[k] = v
		changed = true
	}
	if changed {
		m.assign(raw)
	}
	m.mu.Unlock()

	if changed {
		m.changed()
	}
	return changed
}

// Fetch loads the resource from the server. On failure the model keeps its
// previous fields and state.
func (m *Model) Fetch(ctx context.Context) error {
	url := m.URL()

	var body Attributes
	if err := m.transport.Do(ctx, http.MethodGet, url, nil, &body); err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}

	m.mu.Lock()
	m.assign(body)
	m.state = Loaded
	m.mu.Unlock()

	m.changed()
	return nil
}

// Save writes the raw fields, merged over the defaults, to the server and
// adopts the response. Singletons and models with an id are PUT, new models
// are POSTed to the collection root.
func (m *Model) Save(ctx context.Context) error {
	if m.opts.ReadOnly {
		return fmt.Errorf("save %s: %w", m.opts.Path, ErrReadOnly)
	}

	m.mu.RLock()
	body := m.opts.Defaults.Clone()
	for k, v := range m.raw {
		body[k] = v
	}
	method := http.MethodPost
	if m.opts.Singleton || m.id() != "" {
		method = http.MethodPut
	}
	url := m.url()
	m.mu.RUnlock()

	var resp Attributes
	if err := m.transport.Do(ctx, method, url, body, &resp); err != nil {
		return fmt.Errorf("save %s: %w", url, err)
	}

	m.mu.Lock()
	if resp != nil {
		m.assign(resp)
	}
	m.state = Loaded
	m.mu.Unlock()

	m.changed()
	return nil
}

// Destroy deletes the resource on the server and drops the model from its
// collection. New models are only dropped locally.
func (m *Model) Destroy(ctx context.Context) error {
	if m.opts.ReadOnly {
		return fmt.Errorf("destroy %s: %w", m.opts.Path, ErrReadOnly)
	}

	if !m.IsNew() {
		url := m.URL()
		if err := m.transport.Do(ctx, http.MethodDelete, url, nil, nil); err != nil {
			return fmt.Errorf("destroy %s: %w", url, err)
		}
	}

	m.mu.RLock()
	coll := m.collection
	m.mu.RUnlock()
	if coll != nil {
		coll.remove(m)
	}
	return nil
}

// Clone returns a detached copy with the same fields and binding but no
// subscribers and no collection. Edit forms work on a clone so the shown
// model only changes once the server accepted the save.
func (m *Model) Clone() *Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Model{
		transport: m.transport,
		opts:      m.opts,
		raw:       m.raw.Clone(),
		attrs:     m.attrs.Clone(),
		state:     m.state,
	}
}

func (m *Model) changed() {
	m.notify()

	m.mu.RLock()
	coll := m.collection
	m.mu.RUnlock()
	if coll != nil {
		coll.notify()
	}
}
