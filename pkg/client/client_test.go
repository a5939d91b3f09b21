package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// ClientTestSuite tests the JSON client
type ClientTestSuite struct {
	suite.Suite
	server   *httptest.Server
	client   *Client
	requests atomic.Int32
	lastBody map[string]interface{}
}

// SetupTest starts a small fake API
func (s *ClientTestSuite) SetupTest() {
	s.requests.Store(0)
	s.lastBody = nil

	mux := http.NewServeMux()
	mux.HandleFunc("/api/system", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"platform":"esp8266","machine_freq":80000000}`))
	})
	mux.HandleFunc("/api/network/ap/config", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.Equal("application/json", r.Header.Get("Content-Type"))
		s.NoError(json.NewDecoder(r.Body).Decode(&s.lastBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.lastBody)
	})
	mux.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"resource not found"}`))
	})
	mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/todos/1", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.Equal(http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	s.server = httptest.NewServer(mux)
	s.client = New(s.server.URL+"/", Options{Timeout: 2 * time.Second, RetryMax: 2, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond})
}

// TearDownTest stops the fake API
func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

// TestGet tests decoding a flat object
func (s *ClientTestSuite) TestGet() {
	var out map[string]interface{}
	s.Require().NoError(s.client.Do(context.Background(), http.MethodGet, "/api/system", nil, &out))
	s.Equal("esp8266", out["platform"])
	s.Equal(float64(80000000), out["machine_freq"])
}

// TestPut tests sending a JSON body
func (s *ClientTestSuite) TestPut() {
	var out map[string]interface{}
	body := map[string]interface{}{"essid": "lamp", "channel": 6}
	s.Require().NoError(s.client.Do(context.Background(), http.MethodPut, "/api/network/ap/config", body, &out))
	s.Equal("lamp", s.lastBody["essid"])
	s.Equal("lamp", out["essid"])
}

// TestStatusErrorNotRetried tests that HTTP errors surface without retries
func (s *ClientTestSuite) TestStatusErrorNotRetried() {
	err := s.client.Do(context.Background(), http.MethodGet, "/api/missing", nil, nil)
	s.Require().Error(err)
	s.True(IsNotFound(err))

	var statusErr *StatusError
	s.Require().ErrorAs(err, &statusErr)
	s.Equal("resource not found", statusErr.Message)
	s.Equal(int32(1), s.requests.Load())

	err = s.client.Do(context.Background(), http.MethodGet, "/api/broken", nil, nil)
	s.Require().ErrorAs(err, &statusErr)
	s.Equal(http.StatusInternalServerError, statusErr.StatusCode)
	s.Equal("boom", statusErr.Message)
	s.False(IsNotFound(err))
}

// TestDeleteNoContent tests a 204 response
func (s *ClientTestSuite) TestDeleteNoContent() {
	s.NoError(s.client.Do(context.Background(), http.MethodDelete, "/api/todos/1", nil, nil))
}

// TestConnectionError tests an unreachable server
func (s *ClientTestSuite) TestConnectionError() {
	s.server.Close()
	err := s.client.Do(context.Background(), http.MethodGet, "/api/system", nil, nil)
	s.Error(err)
}

// TestEventsURL tests websocket URL derivation
func (s *ClientTestSuite) TestEventsURL() {
	s.Equal("http://192.168.4.1", New("http://192.168.4.1/", Options{}).BaseURL())
	s.Equal("ws://192.168.4.1/api/events", New("http://192.168.4.1", Options{}).EventsURL())
	s.Equal("wss://console.lan:8443/api/events", New("https://console.lan:8443/", Options{}).EventsURL())
}

// TestConnectionRetryPolicy tests which failures are retried
func (s *ClientTestSuite) TestConnectionRetryPolicy() {
	ctx := context.Background()

	retry, err := connectionRetryPolicy(ctx, &http.Response{StatusCode: http.StatusBadGateway}, nil)
	s.False(retry)
	s.NoError(err)

	retry, _ = connectionRetryPolicy(ctx, nil, &timeoutError{})
	s.True(retry)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err = connectionRetryPolicy(cancelled, nil, &timeoutError{})
	s.False(retry)
	s.ErrorIs(err, context.Canceled)
}

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// TestClientSuite runs the client test suite
func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}
