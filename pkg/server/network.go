package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"devconsole/pkg/log"
	"devconsole/pkg/models"
	"devconsole/pkg/store"

	"github.com/labstack/echo/v4"
)

const apConfigResource = "/api/network/ap/config"

// getNetwork handles GET /api/network and drills below it.
func (srv *ConsoleServer) getNetwork(ctx echo.Context) error {
	cfg, err := srv.store.GetAPConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load access point config")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to load access point config")
	}

	sta, ap, err := srv.device.Interfaces()
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect network interfaces")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to collect network interfaces")
	}

	return srv.drill(ctx, models.NetworkInfo{
		PhyMode: srv.device.PhyMode(),
		STA:     sta,
		AP:      models.APInfo{WLANStats: ap, Config: *cfg},
	})
}

// getAPConfig handles GET /api/network/ap/config.
func (srv *ConsoleServer) getAPConfig(ctx echo.Context) error {
	cfg, err := srv.store.GetAPConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load access point config")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to load access point config")
	}
	return ctx.JSON(http.StatusOK, cfg)
}

// saveAPConfig handles PUT and POST /api/network/ap/config. The body is
// applied over the stored config, so omitted fields keep their value. The
// MAC address is never written.
func (srv *ConsoleServer) saveAPConfig(ctx echo.Context) error {
	current, err := srv.store.GetAPConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load access point config")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to load access point config")
	}

	cfg := *current
	if err := json.NewDecoder(ctx.Request().Body).Decode(&cfg); err != nil {
		log.Warn().Err(err).Msg("Invalid access point config body")
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}
	cfg.MAC = current.MAC

	saved, err := srv.store.SaveAPConfig(cfg)
	if err != nil {
		if errors.Is(err, store.ErrInvalidAPConfig) {
			log.Warn().Err(err).Msg("Rejected access point config")
			return errorJSON(ctx, http.StatusBadRequest, err.Error())
		}
		log.Error().Err(err).Msg("Failed to save access point config")
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to save access point config")
	}

	log.Info().
		Str("essid", saved.ESSID).
		Int("channel", saved.Channel).
		Bool("hidden", saved.Hidden).
		Str("authmode", saved.AuthMode).
		Msg("Access point config saved")

	srv.hub.Publish(apConfigResource)
	return ctx.JSON(http.StatusOK, saved)
}
