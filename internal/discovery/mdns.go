package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

const (
	// DefaultService is the advertised mDNS service type.
	DefaultService = "_graylogic._tcp"

	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."

	// DefaultScanTimeout bounds Scan when the context has no deadline.
	DefaultScanTimeout = 5 * time.Second

	// APIPath is advertised in the path TXT record.
	APIPath = "/api/v1"
)

// ErrDisabled is returned by Advertise when discovery is disabled.
var ErrDisabled = errors.New("discovery: disabled in configuration")

// Advertisement describes this controller on the network.
type Advertisement struct {
	Instance string
	Port     int
	SiteID   string
	Version  string
}

// Advertiser publishes the controller's API over mDNS.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
}

// Advertise registers the service. It returns ErrDisabled when
// discovery.enabled is false.
func Advertise(cfg config.DiscoveryConfig, ad Advertisement) (*Advertiser, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	service, domain := serviceAndDomain(cfg)
	instance := cfg.Instance
	if instance == "" {
		instance = ad.Instance
	}
	if instance == "" {
		instance = "graylogic-" + ad.SiteID
	}

	server, err := zeroconf.Register(instance, service, domain, ad.Port, txtRecords(ad), nil)
	if err != nil {
		return nil, fmt.Errorf("registering mDNS service %s: %w", service, err)
	}
	return &Advertiser{server: server}, nil
}

// Close withdraws the advertisement. It is safe to call on nil.
func (a *Advertiser) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	return nil
}

// Controller is a controller found by Scan.
type Controller struct {
	Instance string
	Host     string
	Addrs    []string
	Port     int
	SiteID   string
	Version  string
	Path     string
}

// URL returns the API base URL of the controller.
func (c Controller) URL() string {
	host := c.Host
	if len(c.Addrs) > 0 {
		host = c.Addrs[0]
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
	}
	path := c.Path
	if path == "" {
		path = APIPath
	}
	return fmt.Sprintf("http://%s:%d%s", strings.TrimSuffix(host, "."), c.Port, path)
}

// Scan browses for controllers until ctx is done, or DefaultScanTimeout
// when ctx has no deadline.
func Scan(ctx context.Context, cfg config.DiscoveryConfig) ([]Controller, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultScanTimeout)
		defer cancel()
	}
	service, domain := serviceAndDomain(cfg)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("creating mDNS resolver: %w", err)
	}

	var (
		mu    sync.Mutex
		found []Controller
	)
	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			mu.Lock()
			found = append(found, fromEntry(entry))
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, service, domain, entries); err != nil {
		return nil, fmt.Errorf("browsing for %s: %w", service, err)
	}
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]Controller(nil), found...), nil
}

func serviceAndDomain(cfg config.DiscoveryConfig) (string, string) {
	service, domain := cfg.Service, cfg.Domain
	if service == "" {
		service = DefaultService
	}
	if domain == "" {
		domain = DefaultDomain
	}
	return service, domain
}

func txtRecords(ad Advertisement) []string {
	return []string{
		"site=" + ad.SiteID,
		"version=" + ad.Version,
		"path=" + APIPath,
	}
}

func fromEntry(entry *zeroconf.ServiceEntry) Controller {
	c := Controller{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     entry.Port,
	}
	for _, ip := range entry.AddrIPv4 {
		c.Addrs = append(c.Addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		c.Addrs = append(c.Addrs, ip.String())
	}
	for _, rec := range entry.Text {
		key, value, ok := strings.Cut(rec, "=")
		if !ok {
			continue
		}
		switch key {
		case "site":
			c.SiteID = value
		case "version":
			c.Version = value
		case "path":
			c.Path = value
		}
	}
	return c
}
