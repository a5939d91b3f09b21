package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

// call records one request sent through fakeTransport
type call struct {
	method string
	path   string
	body   Attributes
}

// fakeTransport is an in-memory API that stores JSON objects by path
type fakeTransport struct {
	mu      sync.Mutex
	objects map[string]Attributes
	lists   map[string][]Attributes
	calls   []call
	failGet bool
	nextID  int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		objects: make(map[string]Attributes),
		lists:   make(map[string][]Attributes),
	}
}

func (f *fakeTransport) Do(ctx context.Context, method, path string, body, out interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var attrs Attributes
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &attrs); err != nil {
			return err
		}
	}
	f.calls = append(f.calls, call{method: method, path: path, body: attrs})

	var resp interface{}
	switch method {
	case http.MethodGet:
		if f.failGet {
			return errors.New("connection refused")
		}
		if list, ok := f.lists[path]; ok {
			resp = list
		} else if obj, ok := f.objects[path]; ok {
			resp = obj
		} else {
			return errors.New("not found")
		}
	case http.MethodPost:
		f.nextID++
		attrs["id"] = fmt.Sprintf("id-%d", f.nextID)
		f.objects[path+"/"+attrs["id"].(string)] = attrs
		resp = attrs
	case http.MethodPut:
		// the server owns the mac field
		if old, ok := f.objects[path]; ok {
			if mac, ok := old["mac"]; ok {
				attrs["mac"] = mac
			}
		}
		f.objects[path] = attrs
		resp = attrs
	case http.MethodDelete:
		delete(f.objects, path)
		return nil
	}

	if out == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeTransport) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// ModelTestSuite tests resource models
type ModelTestSuite struct {
	suite.Suite
	transport *fakeTransport
	ctx       context.Context
}

// SetupTest seeds the fake API
func (s *ModelTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.transport = newFakeTransport()
	s.transport.objects["/api/memory"] = Attributes{"mem_alloc": 100.0, "mem_free": 300.0}
	s.transport.objects["/api/network/ap/config"] = Attributes{
		"authmode": "AUTH_WPA2_PSK",
		"hidden":   false,
		"mac":      "0xa0b1c2d3e4f5",
		"channel":  11.0,
		"essid":    "devconsole",
	}
}

func (s *ModelTestSuite) apConfig() *Model {
	return NewModel(s.transport, Options{Path: "/api/network/ap/config", Singleton: true}, nil)
}

// TestFetchAppliesParse tests that display fields come from the parse transform
func (s *ModelTestSuite) TestFetchAppliesParse() {
	m := NewModel(s.transport, Options{
		Path:     "/api/memory",
		ReadOnly: true,
		Parse: func(raw Attributes) Attributes {
			raw["capacity"] = raw["mem_alloc"].(float64) + raw["mem_free"].(float64)
			raw["mem_alloc"] = "100b"
			return raw
		},
	}, nil)
	s.Equal(Unloaded, m.State())

	s.Require().NoError(m.Fetch(s.ctx))
	s.Equal(Loaded, m.State())
	s.Equal("loaded", m.State().String())
	s.Equal(400.0, m.Get("capacity"))
	s.Equal("100b", m.Get("mem_alloc"))

	// raw fields are untouched by parse
	s.Equal(100.0, m.Raw()["mem_alloc"])
	_, ok := m.Raw()["capacity"]
	s.False(ok)
}

// TestFetchFailureKeepsState tests that a failed fetch leaves the model alone
func (s *ModelTestSuite) TestFetchFailureKeepsState() {
	m := s.apConfig()
	s.transport.failGet = true
	s.Error(m.Fetch(s.ctx))
	s.Equal(Unloaded, m.State())
	s.Empty(m.Attributes())

	s.transport.failGet = false
	s.Require().NoError(m.Fetch(s.ctx))

	s.transport.failGet = true
	s.Error(m.Fetch(s.ctx))
	s.Equal(Loaded, m.State())
	s.Equal("devconsole", m.Get("essid"))
}

// TestReadOnlyNeverSaves tests that read-only models refuse writes
func (s *ModelTestSuite) TestReadOnlyNeverSaves() {
	m := NewModel(s.transport, Options{Path: "/api/memory", ReadOnly: true}, nil)
	s.Require().NoError(m.Fetch(s.ctx))
	calls := s.transport.callCount()

	s.ErrorIs(m.Save(s.ctx), ErrReadOnly)
	s.ErrorIs(m.Destroy(s.ctx), ErrReadOnly)
	s.Equal(calls, s.transport.callCount())
}

// TestSetNotifiesOnlyOnChange tests change notifications
func (s *ModelTestSuite) TestSetNotifiesOnlyOnChange() {
	m := s.apConfig()
	s.Require().NoError(m.Fetch(s.ctx))

	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	s.False(m.Set("essid", "devconsole"))
	s.Len(ch, 0)

	s.True(m.Set("essid", "kitchen"))
	s.Len(ch, 1)
	s.Equal("kitchen", m.Get("essid"))

	// a second change coalesces into the pending signal
	s.True(m.Set("hidden", true))
	s.Len(ch, 1)
	<-ch
	s.Len(ch, 0)
}

// TestUnsubscribeClosesChannel tests subscriber removal
func (s *ModelTestSuite) TestUnsubscribeClosesChannel() {
	m := s.apConfig()
	ch := m.Subscribe()
	m.Unsubscribe(ch)

	_, ok := <-ch
	s.False(ok)

	// unsubscribing twice is harmless
	m.Unsubscribe(ch)
	s.True(m.Set("essid", "x"))
}

// TestSaveRoundTrip tests that an edited essid survives save and refetch
func (s *ModelTestSuite) TestSaveRoundTrip() {
	m := s.apConfig()
	s.Require().NoError(m.Fetch(s.ctx))

	m.SetAll(Attributes{"essid": "workshop", "channel": 6, "hidden": true, "mac": "0xffffffffffff"})
	s.Require().NoError(m.Save(s.ctx))

	last := s.transport.lastCall()
	s.Equal(http.MethodPut, last.method)
	s.Equal("/api/network/ap/config", last.path)
	s.Equal("workshop", last.body["essid"])

	// the server kept its mac
	s.Equal("0xa0b1c2d3e4f5", m.Get("mac"))

	fresh := s.apConfig()
	s.Require().NoError(fresh.Fetch(s.ctx))
	s.Equal("workshop", fresh.Get("essid"))
	s.Equal(6.0, fresh.Get("channel"))
	s.Equal(true, fresh.Get("hidden"))
}

// TestSaveSendsRawFields tests that derived fields are never written back
func (s *ModelTestSuite) TestSaveSendsRawFields() {
	m := NewModel(s.transport, Options{
		Path:      "/api/network/ap/config",
		Singleton: true,
		Defaults:  Attributes{"authmode": "AUTH_OPEN", "hidden": false},
		Parse: func(raw Attributes) Attributes {
			raw["essid"] = strings.ToUpper(raw["essid"].(string))
			return raw
		},
	}, Attributes{"essid": "lab", "hidden": true})

	s.Equal("LAB", m.Get("essid"))
	s.Require().NoError(m.Save(s.ctx))

	body := s.transport.lastCall().body
	s.Equal("lab", body["essid"])
	s.Equal(true, body["hidden"])
	s.Equal("AUTH_OPEN", body["authmode"])
}

// TestCloneIsDetached tests that edits to a clone do not leak
func (s *ModelTestSuite) TestCloneIsDetached() {
	m := s.apConfig()
	s.Require().NoError(m.Fetch(s.ctx))
	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	clone := m.Clone()
	s.Equal(Loaded, clone.State())
	s.True(clone.Set("essid", "draft"))

	s.Equal("devconsole", m.Get("essid"))
	s.Len(ch, 0)

	s.Require().NoError(clone.Save(s.ctx))
	s.Require().NoError(m.Fetch(s.ctx))
	s.Equal("draft", m.Get("essid"))
}

// TestURL tests endpoint selection
func (s *ModelTestSuite) TestURL() {
	single := s.apConfig()
	s.Equal("/api/network/ap/config", single.URL())
	s.False(single.IsNew())

	item := NewModel(s.transport, Options{Path: "/api/todos"}, Attributes{"title": "a"})
	s.True(item.IsNew())
	s.Equal("/api/todos", item.URL())

	item.Set("id", "abc")
	s.Equal("/api/todos/abc", item.URL())
	s.Equal("abc", item.ID())

	custom := NewModel(s.transport, Options{Path: "/api/things", IDField: "uid"}, Attributes{"uid": 7.0})
	s.Equal("/api/things/7", custom.URL())
}

// TestModelSuite runs the model test suite
func TestModelSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}
