// Package discovery browses the local network for Android devices that
// advertise wireless debugging over mDNS.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
)

const (
	ServiceConnect = "_adb-tls-connect._tcp"
	ServicePairing = "_adb-tls-pairing._tcp"

	// DefaultWindow is how long a scan listens for answers.
	DefaultWindow = 3 * time.Second
)

// Services are browsed on every scan.
var Services = []string{ServiceConnect, ServicePairing}

// Browser is the part of *zeroconf.Resolver the scanner uses.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Scanner runs bounded mDNS browses.
type Scanner struct {
	newBrowser func() (Browser, error)
	window     time.Duration
	logger     *zap.Logger
}

// New creates a scanner listening for window per scan.
func New(window time.Duration, logger *zap.Logger) *Scanner {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		newBrowser: func() (Browser, error) { return zeroconf.NewResolver(nil) },
		window:     window,
		logger:     logger,
	}
}

// WithBrowser replaces the mDNS resolver factory.
func (s *Scanner) WithBrowser(fn func() (Browser, error)) *Scanner {
	s.newBrowser = fn
	return s
}

// Scan browses all Services until the window elapses or ctx ends and
// returns the endpoints found, sorted and de-duplicated.
func (s *Scanner) Scan(ctx context.Context) ([]collaborator.MdnsService, error) {
	browser, err := s.newBrowser()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.window)
	defer cancel()

	var (
		mu    sync.Mutex
		found []collaborator.MdnsService
		wg    sync.WaitGroup
	)

	for _, service := range Services {
		entries := make(chan *zeroconf.ServiceEntry)

		wg.Add(1)
		go func(results <-chan *zeroconf.ServiceEntry) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case entry, ok := <-results:
					if !ok {
						return
					}
					if svc, ok := toService(entry); ok {
						mu.Lock()
						found = append(found, svc)
						mu.Unlock()
					}
				}
			}
		}(entries)

		if err := browser.Browse(ctx, service, "local.", entries); err != nil {
			s.logger.Debug("mDNS browse failed", zap.String("service", service), zap.Error(err))
		}
	}

	wg.Wait()
	return Merge(nil, found), nil
}

// toService converts an answer into a connectable endpoint.
func toService(entry *zeroconf.ServiceEntry) (collaborator.MdnsService, bool) {
	if entry == nil || entry.Port == 0 {
		return collaborator.MdnsService{}, false
	}

	var ip net.IP
	switch {
	case len(entry.AddrIPv4) > 0:
		ip = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		ip = entry.AddrIPv6[0]
	default:
		return collaborator.MdnsService{}, false
	}

	return collaborator.MdnsService{
		Name:    entry.Instance,
		Service: strings.TrimSuffix(entry.Service, "."),
		Address: net.JoinHostPort(ip.String(), strconv.Itoa(entry.Port)),
	}, true
}

// Merge appends extra to base, dropping duplicates, and sorts the result
// by service then name.
func Merge(base, extra []collaborator.MdnsService) []collaborator.MdnsService {
	seen := make(map[collaborator.MdnsService]bool, len(base)+len(extra))
	out := make([]collaborator.MdnsService, 0, len(base)+len(extra))
	for _, list := range [][]collaborator.MdnsService{base, extra} {
		for _, svc := range list {
			if seen[svc] {
				continue
			}
			seen[svc] = true
			out = append(out, svc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].Name < out[j].Name
	})
	return out
}
