package models

// Authentication modes accepted for the access point.
const (
	AuthOpen       = "AUTH_OPEN"
	AuthWEP        = "AUTH_WEP"
	AuthWPAPSK     = "AUTH_WPA_PSK"
	AuthWPA2PSK    = "AUTH_WPA2_PSK"
	AuthWPAWPA2PSK = "AUTH_WPA_WPA2_PSK"
)

// AuthModes lists the authentication modes in the order the edit form cycles them.
var AuthModes = []string{AuthOpen, AuthWEP, AuthWPAPSK, AuthWPA2PSK, AuthWPAWPA2PSK}

// APConfig is the access point configuration served at /api/network/ap/config.
// MAC is reported by the device and never changed by a save.
type APConfig struct {
	AuthMode string `json:"authmode"`
	Hidden   bool   `json:"hidden"`
	MAC      string `json:"mac"`
	Channel  int    `json:"channel"`
	ESSID    string `json:"essid"`
}

// Interface status values.
const (
	StatIdle       = "STAT_IDLE"
	StatConnecting = "STAT_CONNECTING"
	StatGotIP      = "STAT_GOT_IP"
)

// IfConfig is the addressing of an active interface.
type IfConfig struct {
	IP      string `json:"ip"`
	Subnet  string `json:"subnet"`
	Gateway string `json:"gateway"`
	DNS     string `json:"dns"`
}

// WLANStats describes the station or access point interface. An inactive
// interface encodes as {}.
type WLANStats struct {
	Status   string    `json:"status,omitempty"`
	IfConfig *IfConfig `json:"ifconfig,omitempty"`
}

// Active reports whether the interface is up.
func (w WLANStats) Active() bool {
	return w.Status != ""
}

// APInfo is the access point interface plus its config, nested under /api/network.
type APInfo struct {
	WLANStats
	Config APConfig `json:"config"`
}

// NetworkInfo is the body of GET /api/network.
type NetworkInfo struct {
	PhyMode string    `json:"phy_mode"`
	STA     WLANStats `json:"sta"`
	AP      APInfo    `json:"ap"`
}
