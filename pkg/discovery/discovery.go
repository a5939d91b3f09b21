// Package discovery advertises consoled on the local network over mDNS and
// finds running instances from the console client.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"devconsole/pkg/log"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the DNS-SD service consoled registers.
	ServiceType = "_devconsole._tcp"
	domain      = "local."
)

// ErrNoInstances is returned when a browse finished without results.
var ErrNoInstances = errors.New("no console instances found")

// Instance is a discovered consoled.
type Instance struct {
	Name    string
	Host    string
	Port    int
	Version string
}

// URL returns the base HTTP URL of the instance.
func (i Instance) URL() string {
	return "http://" + net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

// Advertiser keeps an mDNS registration alive until Shutdown.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance on port. version is published as a TXT record.
func Advertise(instance string, port int, version string) (*Advertiser, error) {
	txt := []string{"version=" + version, "path=/api"}
	server, err := zeroconf.Register(instance, ServiceType, domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}

	log.Info().
		Str("instance", instance).
		Str("service", ServiceType).
		Int("port", port).
		Msg("Advertising on mDNS")

	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the registration.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}

// Browse looks for instances until timeout elapses or ctx is done.
func Browse(ctx context.Context, timeout time.Duration) ([]Instance, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan []Instance, 1)

	go func() {
		var instances []Instance
		defer func() { found <- instances }()
		for {
			select {
			case <-browseCtx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if inst, ok := fromEntry(entry); ok {
					instances = append(instances, inst)
				}
			}
		}
	}()

	if err := resolver.Browse(browseCtx, ServiceType, domain, entries); err != nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}

	<-browseCtx.Done()
	instances := <-found

	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	sort.Slice(instances, func(i, j int) bool { return instances[i].Name < instances[j].Name })
	return instances, nil
}

func fromEntry(entry *zeroconf.ServiceEntry) (Instance, bool) {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return Instance{}, false
	}

	inst := Instance{
		Name: entry.Instance,
		Host: entry.AddrIPv4[0].String(),
		Port: entry.Port,
	}
	for _, record := range entry.Text {
		if key, value, ok := strings.Cut(record, "="); ok && key == "version" {
			inst.Version = value
		}
	}
	return inst, true
}
