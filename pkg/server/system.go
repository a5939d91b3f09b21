package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"devconsole/pkg/log"

	"github.com/labstack/echo/v4"
)

// getSystem handles GET /api/system and GET /api/system/<field>.
func (srv *ConsoleServer) getSystem(ctx echo.Context) error {
	info, err := srv.device.System()
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect system information")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to collect system information")
	}
	return srv.drill(ctx, info)
}

// getMemory handles GET /api/memory.
func (srv *ConsoleServer) getMemory(ctx echo.Context) error {
	stats, err := srv.device.Memory()
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect memory stats")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to collect memory stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// getFlash handles GET /api/flash.
func (srv *ConsoleServer) getFlash(ctx echo.Context) error {
	stats, err := srv.device.Flash()
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect flash stats")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to collect flash stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// drill answers with v, or with the member of v named by the wildcard path
// ("ap/config" selects v["ap"]["config"]). Unknown members are 404.
func (srv *ConsoleServer) drill(ctx echo.Context, v interface{}) error {
	selector := strings.Trim(ctx.Param("*"), "/")
	if selector == "" {
		return ctx.JSON(http.StatusOK, v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errorJSON(ctx, http.StatusInternalServerError, "Internal server error")
	}
	var current interface{}
	if err := json.Unmarshal(data, &current); err != nil {
		return errorJSON(ctx, http.StatusInternalServerError, "Internal server error")
	}

	for _, component := range strings.Split(selector, "/") {
		fields, ok := current.(map[string]interface{})
		if !ok {
			return srv.badContext(ctx, selector)
		}
		if current, ok = fields[component]; !ok {
			return srv.badContext(ctx, selector)
		}
	}

	return ctx.JSON(http.StatusOK, current)
}

func (srv *ConsoleServer) badContext(ctx echo.Context, selector string) error {
	log.Warn().Str("context", selector).Str("path", ctx.Request().URL.Path).Msg("Unknown resource field")
	return errorJSON(ctx, http.StatusNotFound, "Bad context: "+selector)
}
