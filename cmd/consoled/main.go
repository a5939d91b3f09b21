package main

import (
	_ "embed"
	"flag"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"devconsole/pkg/config"
	"devconsole/pkg/device"
	"devconsole/pkg/discovery"
	"devconsole/pkg/events"
	"devconsole/pkg/log"
	"devconsole/pkg/server"
	"devconsole/pkg/store"

	"github.com/dustin/go-humanize"
)

const (
	dataDirPerm = 0750
)

//go:embed VERSION
var Version string

func main() {
	// Initialize logger first
	_ = log.Logger

	configPath := flag.String("config", "", "YAML config file")
	listen := flag.String("listen", "", "Listen address (default :8080)")
	dbPath := flag.String("db", "", "SQLite database path")
	dataDir := flag.String("data", "", "Directory whose filesystem is reported as flash")
	mdns := flag.Bool("mdns", false, "Advertise the console on mDNS")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
	}

	// explicitly set flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = *listen
		case "db":
			cfg.DBPath = *dbPath
		case "data":
			cfg.DataDir = *dataDir
		case "mdns":
			cfg.MDNS.Enabled = *mdns
		}
	})

	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("Unknown log level, keeping info")
	}
	if *debug {
		log.SetDebugMode()
	}

	if err := os.MkdirAll(cfg.DataDir, dataDirPerm); err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("Failed to create data directory")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), dataDirPerm); err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("Failed to create database directory")
	}

	st, err := store.NewStore(cfg.DBPath, cfg.SeedAPConfig())
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	version := strings.TrimSpace(Version)
	host := device.NewHost(cfg.Device, cfg.DataDir)
	if flash, err := host.Flash(); err == nil {
		log.Info().
			Str("flash_size", humanize.IBytes(uint64(flash.FlashSize))). // #nosec G115 - sizes are never negative
			Str("flash_free", humanize.IBytes(uint64(flash.Free))).      // #nosec G115 - sizes are never negative
			Str("data_dir", cfg.DataDir).
			Msg("Device storage")
	}

	if cfg.MDNS.Enabled {
		port, err := listenPort(cfg.ListenAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.ListenAddr).Msg("Cannot advertise without a port")
		}
		advertiser, err := discovery.Advertise(cfg.MDNS.Instance, port, version)
		if err != nil {
			log.Warn().Err(err).Msg("mDNS advertisement disabled")
		}
		defer advertiser.Shutdown()
	}

	srv := server.NewConsoleServer(host, st, events.NewHub(), version)
	if err := srv.Start(cfg.ListenAddr); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
}

func listenPort(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(port)
}
