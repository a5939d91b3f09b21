// Package server serves the device console REST API.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devconsole/pkg/events"
	"devconsole/pkg/log"
	"devconsole/pkg/models"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	shutdownTimeout = 10
)

// DeviceInfo reports the live state of the device.
type DeviceInfo interface {
	System() (*models.SystemInfo, error)
	Memory() (*models.MemoryStats, error)
	Flash() (*models.FlashStats, error)
	PhyMode() string
	Interfaces() (sta, ap models.WLANStats, err error)
}

// Store persists the writable resources.
type Store interface {
	GetAPConfig() (*models.APConfig, error)
	SaveAPConfig(cfg models.APConfig) (*models.APConfig, error)
	CreateTodo(title string, completed bool) (*models.Todo, error)
	GetTodo(id string) (*models.Todo, error)
	ListTodos() ([]models.Todo, error)
	UpdateTodo(id string, input models.TodoInput) (*models.Todo, error)
	DeleteTodo(id string) error
}

// ConsoleServer is the HTTP API of one device.
type ConsoleServer struct {
	echo    *echo.Echo
	device  DeviceInfo
	store   Store
	hub     *events.Hub
	version string
	started time.Time
}

// NewConsoleServer creates a server. Routes are installed by Start.
func NewConsoleServer(device DeviceInfo, st Store, hub *events.Hub, version string) *ConsoleServer {
	if hub == nil {
		hub = events.NewHub()
	}
	return &ConsoleServer{
		echo:    echo.New(),
		device:  device,
		store:   st,
		hub:     hub,
		version: version,
		started: time.Now(),
	}
}

// Start serves on addr until SIGINT or SIGTERM, then shuts down.
func (srv *ConsoleServer) Start(addr string) error {
	srv.setupRoutes()

	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", srv.version).
			Msg("Starting console server")

		if err := srv.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return srv.Shutdown()
}

// Shutdown stops the server gracefully.
func (srv *ConsoleServer) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout*time.Second)
	defer cancel()

	if err := srv.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Int("subscribers", srv.hub.Count()).Msg("Server gracefully stopped")
	return nil
}

func (srv *ConsoleServer) setupRoutes() {
	srv.echo.HideBanner = true
	srv.echo.HidePort = true
	srv.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
		// the websocket stream would log one line per connection lifetime
		Skipper: func(ctx echo.Context) bool {
			return ctx.Path() == "/api/events"
		},
	}))
	srv.echo.Use(middleware.Recover())

	srv.echo.GET("/", srv.serveDashboard)

	srv.echo.GET("/api/system", srv.getSystem)
	srv.echo.GET("/api/system/*", srv.getSystem)
	srv.echo.GET("/api/memory", srv.getMemory)
	srv.echo.GET("/api/flash", srv.getFlash)

	srv.echo.GET("/api/network", srv.getNetwork)
	srv.echo.GET("/api/network/ap/config", srv.getAPConfig)
	srv.echo.PUT("/api/network/ap/config", srv.saveAPConfig)
	srv.echo.POST("/api/network/ap/config", srv.saveAPConfig)
	srv.echo.GET("/api/network/*", srv.getNetwork)

	srv.echo.GET("/api/todos", srv.listTodos)
	srv.echo.POST("/api/todos", srv.createTodo)
	srv.echo.GET("/api/todos/:id", srv.getTodo)
	srv.echo.PUT("/api/todos/:id", srv.updateTodo)
	srv.echo.DELETE("/api/todos/:id", srv.deleteTodo)

	srv.echo.GET("/api/events", echo.WrapHandler(srv.hub))
}

func errorJSON(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, map[string]string{
		"error": message,
	})
}
