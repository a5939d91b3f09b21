package device

import (
	"bufio"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"devconsole/pkg/log"
	"devconsole/pkg/models"
)

const (
	noAddress = "0.0.0.0"
	// /proc/net/route columns
	routeIface       = 0
	routeDestination = 1
	routeGateway     = 2
	minRouteFields   = 3
)

// netInterface is the part of net.Interface the network report needs.
type netInterface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.Addr
}

func hostInterfaces() ([]netInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	result := make([]netInterface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			log.Debug().Err(err).Str("interface", iface.Name).Msg("Interface addresses unavailable")
		}
		result = append(result, netInterface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
			Addrs:    addrs,
		})
	}
	return result, nil
}

// Interfaces reports the station and access point interfaces.
func (h *Host) Interfaces() (models.WLANStats, models.WLANStats, error) {
	ifaces, err := h.interfaces()
	if err != nil {
		return models.WLANStats{}, models.WLANStats{}, err
	}

	var sta, ap *netInterface
	for i := range ifaces {
		iface := &ifaces[i]
		switch {
		case h.profile.APInterface != "" && iface.Name == h.profile.APInterface:
			ap = iface
		case h.profile.STAInterface != "":
			if iface.Name == h.profile.STAInterface {
				sta = iface
			}
		case sta == nil && iface.Up && !iface.Loopback && ipv4Net(iface.Addrs) != nil:
			sta = iface
		}
	}

	dns := h.readNameserver()
	return h.wlanStats(sta, dns), h.wlanStats(ap, dns), nil
}

func (h *Host) wlanStats(iface *netInterface, dns string) models.WLANStats {
	if iface == nil || !iface.Up {
		return models.WLANStats{}
	}

	ipNet := ipv4Net(iface.Addrs)
	if ipNet == nil {
		return models.WLANStats{
			Status:   models.StatConnecting,
			IfConfig: &models.IfConfig{IP: noAddress, Subnet: noAddress, Gateway: noAddress, DNS: noAddress},
		}
	}

	return models.WLANStats{
		Status: models.StatGotIP,
		IfConfig: &models.IfConfig{
			IP:      ipNet.IP.String(),
			Subnet:  net.IP(ipNet.Mask).String(),
			Gateway: h.readGateway(iface.Name),
			DNS:     dns,
		},
	}
}

func ipv4Net(addrs []net.Addr) *net.IPNet {
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			mask := ipNet.Mask
			if len(mask) == net.IPv6len {
				mask = mask[net.IPv6len-net.IPv4len:]
			}
			return &net.IPNet{IP: ip4, Mask: mask}
		}
	}
	return nil
}

func (h *Host) readGateway(name string) string {
	file, err := os.Open(h.routePath)
	if err != nil {
		log.Debug().Err(err).Str("path", h.routePath).Msg("Routing table unavailable")
		return noAddress
	}
	defer func() { _ = file.Close() }()

	return parseDefaultGateway(file, name)
}

// parseDefaultGateway finds the default route of iface in /proc/net/route.
// Addresses there are little endian hex.
func parseDefaultGateway(r io.Reader, iface string) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < minRouteFields || fields[routeIface] != iface || fields[routeDestination] != "00000000" {
			continue
		}
		value, err := strconv.ParseUint(fields[routeGateway], 16, 32)
		if err != nil {
			continue
		}
		return net.IPv4(byte(value), byte(value>>8), byte(value>>16), byte(value>>24)).String()
	}
	return noAddress
}

func (h *Host) readNameserver() string {
	file, err := os.Open(h.resolvPath)
	if err != nil {
		log.Debug().Err(err).Str("path", h.resolvPath).Msg("Resolver config unavailable")
		return noAddress
	}
	defer func() { _ = file.Close() }()

	return parseNameserver(file)
}

// parseNameserver returns the first IPv4 nameserver of a resolv.conf.
func parseNameserver(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "nameserver" {
			continue
		}
		if ip := net.ParseIP(fields[1]); ip != nil && ip.To4() != nil {
			return ip.String()
		}
	}
	return noAddress
}
