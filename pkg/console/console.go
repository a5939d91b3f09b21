// Package console binds the device console and todo resources to models.
package console

import (
	"fmt"
	"math"

	"devconsole/pkg/format"
	"devconsole/pkg/models"
	"devconsole/pkg/resource"
)

// Endpoints served by consoled.
const (
	SystemPath   = "/api/system"
	MemoryPath   = "/api/memory"
	FlashPath    = "/api/flash"
	NetworkPath  = "/api/network"
	APConfigPath = "/api/network/ap/config"
	TodosPath    = "/api/todos"
	EventsPath   = "/api/events"
)

// NewSystemModel binds the read-only system info.
func NewSystemModel(t resource.Transport) *resource.Model {
	return resource.NewModel(t, resource.Options{
		Path:      SystemPath,
		Parse:     ParseSystem,
		ReadOnly:  true,
		Singleton: true,
	}, nil)
}

// NewMemoryModel binds the read-only memory stats.
func NewMemoryModel(t resource.Transport) *resource.Model {
	return resource.NewModel(t, resource.Options{
		Path:      MemoryPath,
		Parse:     ParseMemory,
		ReadOnly:  true,
		Singleton: true,
	}, nil)
}

// NewFlashModel binds the read-only flash stats.
func NewFlashModel(t resource.Transport) *resource.Model {
	return resource.NewModel(t, resource.Options{
		Path:      FlashPath,
		Parse:     ParseFlash,
		ReadOnly:  true,
		Singleton: true,
	}, nil)
}

// NewNetworkModel binds the read-only network overview.
func NewNetworkModel(t resource.Transport) *resource.Model {
	return resource.NewModel(t, resource.Options{
		Path:      NetworkPath,
		Parse:     ParseNetwork,
		ReadOnly:  true,
		Singleton: true,
	}, nil)
}

// NewAPConfigModel binds the editable access point config. It has no parse
// transform, so what is shown is what gets saved.
func NewAPConfigModel(t resource.Transport) *resource.Model {
	return resource.NewModel(t, resource.Options{
		Path:      APConfigPath,
		Singleton: true,
		Defaults: resource.Attributes{
			"authmode": models.AuthOpen,
			"hidden":   false,
		},
	}, nil)
}

// ParseSystem renders the clock frequency and joins platform and version.
func ParseSystem(raw resource.Attributes) resource.Attributes {
	if v, ok := raw["machine_freq"]; ok {
		raw["machine_freq"] = format.Frequency(Number(v))
	}
	if platform, ok := raw["platform"]; ok {
		raw["platform"] = fmt.Sprint(platform) + "-" + fmt.Sprint(raw["version"])
	}
	return raw
}

// ParseNetwork summarizes the station and access point interfaces as
// sta_state and ap_state.
func ParseNetwork(raw resource.Attributes) resource.Attributes {
	raw["sta_state"] = interfaceState(raw["sta"])
	raw["ap_state"] = interfaceState(raw["ap"])
	return raw
}

func interfaceState(v interface{}) string {
	stats, _ := v.(map[string]interface{})
	status, ok := stats["status"].(string)
	if !ok || status == "" {
		return "inactive"
	}
	ifconfig, _ := stats["ifconfig"].(map[string]interface{})
	ip, ok := ifconfig["ip"].(string)
	if !ok {
		return status
	}
	if gateway, ok := ifconfig["gateway"].(string); ok && gateway != "" && gateway != "0.0.0.0" {
		return fmt.Sprintf("%s %s via %s", status, ip, gateway)
	}
	return status + " " + ip
}

// ParseMemory derives capacity and usage and renders the byte counts.
func ParseMemory(raw resource.Attributes) resource.Attributes {
	alloc := Number(raw["mem_alloc"])
	free := Number(raw["mem_free"])
	capacity := alloc + free

	raw["usage"] = format.Usage(capacity, free)
	raw["capacity"] = size(capacity)
	raw["mem_alloc"] = size(alloc)
	raw["mem_free"] = size(free)
	return raw
}

// ParseFlash derives usage and renders the byte counts.
func ParseFlash(raw resource.Attributes) resource.Attributes {
	raw["usage"] = format.Usage(Number(raw["capacity"]), Number(raw["free"]))
	for _, key := range []string{"flash_size", "capacity", "used", "free"} {
		raw[key] = size(Number(raw[key]))
	}
	return raw
}

func size(v float64) string {
	return format.Size(int64(math.Round(v)))
}

// Number converts a decoded JSON number to float64. Missing or non-numeric
// values count as zero.
func Number(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint64:
		return float64(n)
	case uint32:
		return float64(n)
	default:
		return 0
	}
}
