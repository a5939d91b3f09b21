// Package device reports the identity and resource counters of the host the
// daemon runs on, shaped like a microcontroller's system, memory and flash
// statistics.
package device

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"devconsole/pkg/config"
	"devconsole/pkg/log"
	"devconsole/pkg/models"
)

const (
	procMeminfo = "/proc/meminfo"
	procCPUInfo = "/proc/cpuinfo"
	machineIDs  = "/etc/machine-id"
	procRoute   = "/proc/net/route"
	resolvConf  = "/etc/resolv.conf"
	kbToBytes   = 1024
	hzPerMHz    = 1000000
	// machine ids are reported like a 6-byte chip id
	machineIDHexLen = 12
)

// Host collects device statistics from the running host, overridden by the
// configured device profile where set.
type Host struct {
	profile config.Device
	dataDir string
	started time.Time

	// file locations, swapped in tests
	meminfoPath   string
	cpuinfoPath   string
	machineIDPath string
	routePath     string
	resolvPath    string
	interfaces    func() ([]netInterface, error)
}

// NewHost creates a collector. dataDir is the filesystem reported as flash.
func NewHost(profile config.Device, dataDir string) *Host {
	return &Host{
		profile:       profile,
		dataDir:       dataDir,
		started:       time.Now(),
		meminfoPath:   procMeminfo,
		cpuinfoPath:   procCPUInfo,
		machineIDPath: machineIDs,
		routePath:     procRoute,
		resolvPath:    resolvConf,
		interfaces:    hostInterfaces,
	}
}

// System returns the platform identity.
func (h *Host) System() (*models.SystemInfo, error) {
	platform := h.profile.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	version := h.profile.Version
	if version == "" {
		version = strings.TrimPrefix(runtime.Version(), "go")
	}

	machineID := h.profile.MachineID
	if machineID == "" {
		machineID = h.readMachineID()
	}

	freq := h.profile.MachineFreq
	if freq == 0 {
		freq = h.readCPUFrequency()
	}

	uptime := int64(time.Since(h.started).Seconds())

	return &models.SystemInfo{
		Platform:      platform,
		Version:       version,
		System:        runtime.Compiler + "-" + strings.TrimPrefix(runtime.Version(), "go") + "-" + runtime.GOARCH,
		MachineID:     machineID,
		MachineFreq:   freq,
		ByteOrder:     byteOrder(),
		Uptime:        formatUptime(uptime),
		UptimeSeconds: uptime,
		MaxSize:       math.MaxInt,
		Modules:       buildModules(),
		Path:          searchPath(),
	}, nil
}

// buildModules lists the main module and its dependencies.
func buildModules() []string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return []string{}
	}
	modules := make([]string, 0, len(info.Deps)+1)
	if info.Main.Path != "" {
		modules = append(modules, info.Main.Path)
	}
	for _, dep := range info.Deps {
		modules = append(modules, dep.Path)
	}
	return modules
}

// searchPath is the executable directory followed by GOPATH entries.
func searchPath() []string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return append([]string{filepath.Dir(exe)}, filepath.SplitList(os.Getenv("GOPATH"))...)
}

// Memory returns allocated and free memory. The "heap" source reports the
// daemon's own heap the way a garbage collected firmware reports its arena;
// "host" reports system memory from /proc/meminfo.
func (h *Host) Memory() (*models.MemoryStats, error) {
	if h.profile.MemorySource == "host" {
		return h.hostMemory()
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return &models.MemoryStats{
		MemAlloc: int64(stats.HeapAlloc),                 // #nosec G115 - heap sizes fit in int64
		MemFree:  int64(stats.HeapSys - stats.HeapAlloc), // #nosec G115
	}, nil
}

func (h *Host) hostMemory() (*models.MemoryStats, error) {
	file, err := os.Open(h.meminfoPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", h.meminfoPath).Msg("Failed to close meminfo file")
		}
	}()

	memStats, err := parseMemInfo(file)
	if err != nil {
		return nil, err
	}

	available := memStats.Available
	if available == 0 {
		available = memStats.Free + memStats.Buffers + memStats.Cached
	}

	return &models.MemoryStats{
		MemAlloc: int64(memStats.Total - available), // #nosec G115
		MemFree:  int64(available),                  // #nosec G115
	}, nil
}

// Flash returns usage of the data directory's filesystem.
func (h *Host) Flash() (*models.FlashStats, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		return nil, err
	}

	// #nosec G115 - syscall values are system dependent
	blockSize := uint64(stat.Bsize)
	total := int64(stat.Blocks * blockSize)
	free := int64(stat.Bavail * blockSize)

	flashSize := h.profile.FlashSize
	if flashSize == 0 {
		flashSize = total
	}

	return &models.FlashStats{
		FlashID:   h.profile.FlashID,
		FlashSize: flashSize,
		Capacity:  total,
		Used:      total - free,
		Free:      free,
	}, nil
}

// PhyMode returns the reported radio mode.
func (h *Host) PhyMode() string {
	if h.profile.PhyMode == "" {
		return "MODE_11N"
	}
	return h.profile.PhyMode
}

func (h *Host) readMachineID() string {
	data, err := os.ReadFile(h.machineIDPath)
	if err != nil {
		log.Debug().Err(err).Str("path", h.machineIDPath).Msg("Machine id unavailable")
		return "0x000000000000"
	}
	id := strings.TrimSpace(string(data))
	if len(id) > machineIDHexLen {
		id = id[:machineIDHexLen]
	}
	return "0x" + strings.ToUpper(id)
}

func (h *Host) readCPUFrequency() float64 {
	file, err := os.Open(h.cpuinfoPath)
	if err != nil {
		log.Debug().Err(err).Str("path", h.cpuinfoPath).Msg("CPU frequency unavailable")
		return 0
	}
	defer func() { _ = file.Close() }()

	return parseCPUFrequency(file)
}

// parseCPUFrequency returns the first "cpu MHz" entry in hertz.
func parseCPUFrequency(r io.Reader) float64 {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found || strings.TrimSpace(key) != "cpu MHz" {
			continue
		}
		mhz, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return mhz * hzPerMHz
	}
	return 0
}

type memStatValues struct {
	Total     uint64
	Free      uint64
	Available uint64
	Buffers   uint64
	Cached    uint64
}

func parseMemInfo(r io.Reader) (*memStatValues, error) {
	var stats memStatValues

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		const minMemFields = 2
		fields := strings.Fields(scanner.Text())
		if len(fields) < minMemFields {
			continue
		}

		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		value *= kbToBytes

		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			stats.Total = value
		case "MemFree":
			stats.Free = value
		case "MemAvailable":
			stats.Available = value
		case "Buffers":
			stats.Buffers = value
		case "Cached":
			stats.Cached = value
		}
	}

	return &stats, scanner.Err()
}

func byteOrder() string {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 1)
	if probe[0] == 1 {
		return "little"
	}
	return "big"
}

// formatUptime converts seconds to "1d 2h 3m" style.
func formatUptime(seconds int64) string {
	duration := time.Duration(seconds) * time.Second
	const hoursInDay = 24
	const minutesInHour = 60
	days := int(duration.Hours()) / hoursInDay
	hours := int(duration.Hours()) % hoursInDay
	minutes := int(duration.Minutes()) % minutesInHour

	switch {
	case days > 0:
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	case hours > 0:
		return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	default:
		return strconv.Itoa(minutes) + "m"
	}
}
