package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"devconsole/pkg/models"
)

// StoreTestSuite tests the SQLite console store.
type StoreTestSuite struct {
	suite.Suite
	dbPath string
	store  *Store
	seed   models.APConfig
}

// SetupTest opens a fresh database for every test.
func (s *StoreTestSuite) SetupTest() {
	s.dbPath = filepath.Join(s.T().TempDir(), "console.db")
	s.seed = models.APConfig{
		ESSID:    "devconsole",
		Channel:  11,
		AuthMode: models.AuthWPA2PSK,
	}

	var err error
	s.store, err = NewStore(s.dbPath, s.seed)
	s.Require().NoError(err)
}

// TearDownTest closes the database.
func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

// TestNewStoreInvalidPath tests store creation with an invalid path.
func (s *StoreTestSuite) TestNewStoreInvalidPath() {
	_, err := NewStore("/nonexistent/path/to/db.sqlite", s.seed)
	s.Error(err)
}

// TestNewStoreInvalidSeed tests that a bad seed is rejected.
func (s *StoreTestSuite) TestNewStoreInvalidSeed() {
	seed := s.seed
	seed.Channel = 0
	_, err := NewStore(filepath.Join(s.T().TempDir(), "other.db"), seed)
	s.ErrorIs(err, ErrInvalidAPConfig)
}

// TestSeededAPConfig tests the seeded access point row.
func (s *StoreTestSuite) TestSeededAPConfig() {
	cfg, err := s.store.GetAPConfig()
	s.Require().NoError(err)
	s.Equal("devconsole", cfg.ESSID)
	s.Equal(11, cfg.Channel)
	s.False(cfg.Hidden)
	s.Equal(models.AuthWPA2PSK, cfg.AuthMode)
	s.True(strings.HasPrefix(cfg.MAC, "0x"))
	s.Len(cfg.MAC, 14)
}

// TestSeedOnlyOnce tests that reopening keeps the saved config.
func (s *StoreTestSuite) TestSeedOnlyOnce() {
	saved := s.seed
	saved.ESSID = "renamed"
	_, err := s.store.SaveAPConfig(saved)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Close())

	reopened, err := NewStore(s.dbPath, s.seed)
	s.Require().NoError(err)
	s.store = reopened

	cfg, err := s.store.GetAPConfig()
	s.Require().NoError(err)
	s.Equal("renamed", cfg.ESSID)
}

// TestSaveAPConfigRoundTrip tests that a saved essid is read back unchanged.
func (s *StoreTestSuite) TestSaveAPConfigRoundTrip() {
	before, err := s.store.GetAPConfig()
	s.Require().NoError(err)

	edited := *before
	edited.ESSID = "garage-lamp"
	edited.Channel = 6
	edited.Hidden = true
	edited.AuthMode = models.AuthOpen
	edited.MAC = "0xffffffffffff"

	saved, err := s.store.SaveAPConfig(edited)
	s.Require().NoError(err)
	s.Equal("garage-lamp", saved.ESSID)
	s.Equal(before.MAC, saved.MAC, "mac is not writable")

	after, err := s.store.GetAPConfig()
	s.Require().NoError(err)
	s.Equal(*saved, *after)
}

// TestValidateAPConfig tests access point validation.
func (s *StoreTestSuite) TestValidateAPConfig() {
	testCases := []struct {
		name   string
		mutate func(*models.APConfig)
		valid  bool
	}{
		{"seed", func(*models.APConfig) {}, true},
		{"empty essid", func(c *models.APConfig) { c.ESSID = "" }, false},
		{"long essid", func(c *models.APConfig) { c.ESSID = strings.Repeat("x", 33) }, false},
		{"max essid", func(c *models.APConfig) { c.ESSID = strings.Repeat("x", 32) }, true},
		{"channel zero", func(c *models.APConfig) { c.Channel = 0 }, false},
		{"channel 14", func(c *models.APConfig) { c.Channel = 14 }, true},
		{"channel 15", func(c *models.APConfig) { c.Channel = 15 }, false},
		{"unknown authmode", func(c *models.APConfig) { c.AuthMode = "AUTH_WPA3" }, false},
	}

	for _, tc := range testCases {
		cfg := s.seed
		tc.mutate(&cfg)
		err := ValidateAPConfig(cfg)
		if tc.valid {
			s.NoError(err, tc.name)
		} else {
			s.ErrorIs(err, ErrInvalidAPConfig, tc.name)
		}
	}
}

// TestTodoLifecycle tests create, list, update and delete.
func (s *StoreTestSuite) TestTodoLifecycle() {
	first, err := s.store.CreateTodo("  flash firmware  ", false)
	s.Require().NoError(err)
	s.Equal("flash firmware", first.Title)
	s.NotEmpty(first.ID)

	second, err := s.store.CreateTodo("rotate logs", true)
	s.Require().NoError(err)

	todos, err := s.store.ListTodos()
	s.Require().NoError(err)
	s.Require().Len(todos, 2)
	s.Equal(first.ID, todos[0].ID)
	s.Equal(second.ID, todos[1].ID)
	s.True(todos[1].Completed)

	completed := true
	updated, err := s.store.UpdateTodo(first.ID, models.TodoInput{Completed: &completed})
	s.Require().NoError(err)
	s.True(updated.Completed)
	s.Equal("flash firmware", updated.Title)

	title := "flash firmware v2"
	updated, err = s.store.UpdateTodo(first.ID, models.TodoInput{Title: &title})
	s.Require().NoError(err)
	s.Equal(title, updated.Title)
	s.True(updated.Completed)

	fetched, err := s.store.GetTodo(first.ID)
	s.Require().NoError(err)
	s.Equal(title, fetched.Title)

	s.Require().NoError(s.store.DeleteTodo(first.ID))
	_, err = s.store.GetTodo(first.ID)
	s.ErrorIs(err, ErrTodoNotFound)

	todos, err = s.store.ListTodos()
	s.Require().NoError(err)
	s.Len(todos, 1)
}

// TestListTodosEmpty tests that an empty list is not nil.
func (s *StoreTestSuite) TestListTodosEmpty() {
	todos, err := s.store.ListTodos()
	s.Require().NoError(err)
	s.NotNil(todos)
	s.Empty(todos)
}

// TestTodoValidation tests title validation.
func (s *StoreTestSuite) TestTodoValidation() {
	_, err := s.store.CreateTodo("   ", false)
	s.ErrorIs(err, ErrInvalidTodo)

	_, err = s.store.CreateTodo(strings.Repeat("a", 201), false)
	s.ErrorIs(err, ErrInvalidTodo)

	todo, err := s.store.CreateTodo("ok", false)
	s.Require().NoError(err)

	empty := ""
	_, err = s.store.UpdateTodo(todo.ID, models.TodoInput{Title: &empty})
	s.ErrorIs(err, ErrInvalidTodo)
}

// TestTodoNotFound tests operations on unknown ids.
func (s *StoreTestSuite) TestTodoNotFound() {
	_, err := s.store.GetTodo("missing")
	s.ErrorIs(err, ErrTodoNotFound)

	done := true
	_, err = s.store.UpdateTodo("missing", models.TodoInput{Completed: &done})
	s.ErrorIs(err, ErrTodoNotFound)

	s.ErrorIs(s.store.DeleteTodo("missing"), ErrTodoNotFound)
}

// TestStoreSuite runs the store test suite.
func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
