package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"devconsole/pkg/client"
	"devconsole/pkg/console"
	"devconsole/pkg/models"
)

// OnceTestSuite tests the one-shot output mode
type OnceTestSuite struct {
	suite.Suite
	mux    *http.ServeMux
	server *httptest.Server
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// SetupTest serves everything except flash stats
func (s *OnceTestSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.mux.HandleFunc(console.SystemPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.SystemInfo{Platform: "linux", Version: "6.1", MachineFreq: 2400000000})
	})
	s.mux.HandleFunc(console.MemoryPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.MemoryStats{MemAlloc: 512, MemFree: 512})
	})
	s.mux.HandleFunc(console.NetworkPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.NetworkInfo{PhyMode: "MODE_11G"})
	})
	s.mux.HandleFunc(console.APConfigPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.APConfig{ESSID: "devconsole", Channel: 11, AuthMode: models.AuthOpen})
	})
	s.mux.HandleFunc(console.TodosPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Todo{{ID: "t1", Title: "check fuses"}})
	})
	s.mux.HandleFunc(console.FlashPath, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"statfs failed"}`, http.StatusInternalServerError)
	})
	s.server = httptest.NewServer(s.mux)
}

// TearDownTest stops the server
func (s *OnceTestSuite) TearDownTest() {
	s.server.Close()
}

// TestPrintOnce tests that loaded views are printed and failures reported
func (s *OnceTestSuite) TestPrintOnce() {
	res := console.NewResources(client.New(s.server.URL, client.Options{Timeout: 2 * time.Second}))

	var out bytes.Buffer
	err := printOnce(context.Background(), &out, res)
	s.Error(err)

	s.Contains(out.String(), "platform    linux-6.1")
	s.Contains(out.String(), "frequency   2400mhz")
	s.Contains(out.String(), "usage       50%")
	s.Contains(out.String(), "phy mode    MODE_11G")
	s.Contains(out.String(), "station     inactive")
	s.Contains(out.String(), "essid       devconsole")
	s.Contains(out.String(), "[ ] check fuses")
	s.NotContains(out.String(), "Flash")
}

// TestOnceSuite runs the once mode test suite
func TestOnceSuite(t *testing.T) {
	suite.Run(t, new(OnceTestSuite))
}
