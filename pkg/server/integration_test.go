package server

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"devconsole/pkg/client"
	"devconsole/pkg/console"
	"devconsole/pkg/events"
	"devconsole/pkg/models"
	"devconsole/pkg/store"
	"devconsole/pkg/view"
)

// IntegrationTestSuite drives the console models against a live server
type IntegrationTestSuite struct {
	suite.Suite
	store  *store.Store
	http   *httptest.Server
	client *client.Client
	ctx    context.Context
}

// SetupTest starts a server on a random port
func (s *IntegrationTestSuite) SetupTest() {
	var err error
	s.store, err = store.NewStore(filepath.Join(s.T().TempDir(), "console.db"), models.APConfig{
		ESSID:    "devconsole",
		Channel:  11,
		AuthMode: models.AuthWPA2PSK,
	})
	s.Require().NoError(err)

	srv := NewConsoleServer(NewMockDevice(), s.store, events.NewHub(), "test-v1.0.0")
	srv.setupRoutes()
	s.http = httptest.NewServer(srv.echo)
	s.client = client.New(s.http.URL, client.Options{Timeout: 5 * time.Second})
	s.ctx = context.Background()
}

// TearDownTest stops the server
func (s *IntegrationTestSuite) TearDownTest() {
	s.http.Close()
	s.store.Close()
}

// TestEssidRoundTrip tests that a saved essid is what a refetch returns
func (s *IntegrationTestSuite) TestEssidRoundTrip() {
	ap := console.NewAPConfigModel(s.client)
	s.Require().NoError(ap.Fetch(s.ctx))
	mac := ap.Get("mac")
	s.NotEmpty(mac)

	form := console.FormFromModel(ap)
	form.ESSID = "workbench"
	form.Channel = 3
	s.Require().NoError(console.SaveAPConfig(s.ctx, ap, form))

	fresh := console.NewAPConfigModel(s.client)
	s.Require().NoError(fresh.Fetch(s.ctx))
	s.Equal("workbench", fresh.Get("essid"))
	s.Equal(3.0, fresh.Get("channel"))
	s.Equal(mac, fresh.Get("mac"))
}

// TestServerRejectsInvalidSave tests that server validation reaches the client
func (s *IntegrationTestSuite) TestServerRejectsInvalidSave() {
	ap := console.NewAPConfigModel(s.client)
	s.Require().NoError(ap.Fetch(s.ctx))

	draft := ap.Clone()
	draft.Set("essid", strings.Repeat("x", 40))
	err := draft.Save(s.ctx)
	s.Require().Error(err)

	var statusErr *client.StatusError
	s.Require().ErrorAs(err, &statusErr)
	s.Equal(400, statusErr.StatusCode)
	s.Contains(statusErr.Message, "essid")
}

// TestReadOnlyViews tests the device views end to end
func (s *IntegrationTestSuite) TestReadOnlyViews() {
	system := console.NewSystemModel(s.client)
	memory := console.NewMemoryModel(s.client)
	s.Require().NoError(system.Fetch(s.ctx))
	s.Require().NoError(memory.Fetch(s.ctx))

	s.Contains(view.System(system).String(), "esp8266-1.9.3")
	s.Contains(view.Memory(memory).String(), "usage       20%")
}

// TestTodosWithEvents tests todo writes and the change stream
func (s *IntegrationTestSuite) TestTodosWithEvents() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	var mu sync.Mutex
	var seen []string
	watchDone := make(chan error, 1)
	wsURL := "ws" + strings.TrimPrefix(s.http.URL, "http") + console.EventsPath
	go func() {
		watchDone <- events.Watch(ctx, wsURL, func(event models.ChangeEvent) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, event.Resource)
		})
	}()

	list := console.NewTodoList(s.client)
	s.Require().NoError(list.Fetch(s.ctx))
	s.Equal(0, list.Len())

	// wait until the watcher is subscribed before writing
	s.Eventually(func() bool {
		m, err := console.AddTodo(s.ctx, list, "probe")
		if err != nil {
			return false
		}
		if err := m.Destroy(s.ctx); err != nil {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 50*time.Millisecond)

	todo, err := console.AddTodo(s.ctx, list, "replace capacitor")
	s.Require().NoError(err)
	s.Require().NoError(console.Toggle(s.ctx, todo))

	again := console.NewTodoList(s.client)
	s.Require().NoError(again.Fetch(s.ctx))
	s.Equal(1, again.Len())
	s.Equal("replace capacitor", console.Title(again.Models()[0]))
	s.True(console.Completed(again.Models()[0]))

	mu.Lock()
	for _, resource := range seen {
		s.Equal(console.TodosPath, resource)
	}
	mu.Unlock()

	cancel()
	select {
	case err := <-watchDone:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		s.Fail("watcher did not stop")
	}
}

// TestIntegrationSuite runs the integration test suite
func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
