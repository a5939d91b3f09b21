package models

// SystemInfo is the body of GET /api/system.
type SystemInfo struct {
	Platform      string  `json:"platform"`
	Version       string  `json:"version"`
	System        string  `json:"system"`
	MachineID     string  `json:"machine_id"`
	MachineFreq   float64 `json:"machine_freq"`
	ByteOrder     string  `json:"byteorder"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	// MaxSize is the largest native int.
	MaxSize int64    `json:"maxsize"`
	Modules []string `json:"modules"`
	Path    []string `json:"path"`
}

// MemoryStats is the body of GET /api/memory.
type MemoryStats struct {
	MemAlloc int64 `json:"mem_alloc"`
	MemFree  int64 `json:"mem_free"`
}

// FlashStats is the body of GET /api/flash.
type FlashStats struct {
	FlashID   int64 `json:"flash_id"`
	FlashSize int64 `json:"flash_size"`
	Capacity  int64 `json:"capacity"`
	Used      int64 `json:"used"`
	Free      int64 `json:"free"`
}
