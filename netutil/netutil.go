// Package netutil discovers the host address and free local ports for
// measurement servers.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultCheckURL echoes the caller's public address.
const DefaultCheckURL = "https://check.torproject.org/"

// DefaultFallbackAddr is dialed over UDP to learn the outbound interface
// address. No packet is sent.
const DefaultFallbackAddr = "8.8.8.8:53"

var ipv4Pattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// Options configures a Resolver.
type Options struct {
	CheckURL     string
	FallbackAddr string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Resolver finds the address other measurement hosts should use to reach
// this one.
type Resolver struct {
	client       *resty.Client
	checkURL     string
	fallbackAddr string
	logger       *zap.Logger
}

// NewResolver creates a resolver with defaults for unset options.
func NewResolver(opts Options) *Resolver {
	if opts.CheckURL == "" {
		opts.CheckURL = DefaultCheckURL
	}
	if opts.FallbackAddr == "" {
		opts.FallbackAddr = DefaultFallbackAddr
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "perfio")

	return &Resolver{
		client:       client,
		checkURL:     opts.CheckURL,
		fallbackAddr: opts.FallbackAddr,
		logger:       opts.Logger,
	}
}

// IPAddress returns the first IPv4 address on the check page, falling back
// to the local address of the default route.
func (r *Resolver) IPAddress(ctx context.Context) (string, error) {
	ip, err := r.checkPage(ctx)
	if err == nil {
		return ip, nil
	}
	r.logger.Debug("address check failed, using local route", zap.String("url", r.checkURL), zap.Error(err))

	ip, ferr := r.localAddress(ctx)
	if ferr != nil {
		return "", errors.Join(err, ferr)
	}
	return ip, nil
}

func (r *Resolver) checkPage(ctx context.Context) (string, error) {
	resp, err := r.client.R().SetContext(ctx).Get(r.checkURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", r.checkURL, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %s: %s", r.checkURL, resp.Status())
	}
	ip := ipv4Pattern.FindString(resp.String())
	if ip == "" {
		return "", fmt.Errorf("no address found at %s", r.checkURL)
	}
	return ip, nil
}

func (r *Resolver) localAddress(ctx context.Context) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", r.fallbackAddr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", r.fallbackAddr, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}

// IPAddress resolves the host address with default options.
func IPAddress(ctx context.Context) (string, error) {
	return NewResolver(Options{}).IPAddress(ctx)
}

// Port range searched by RandomFreePort.
const (
	MinPort = 10000
	MaxPort = 60000
)

const maxPortAttempts = 1000

// ErrNoFreePort is returned when every probed port accepted a connection.
var ErrNoFreePort = errors.New("no free port found")

// RandomFreePort picks a random port in [MinPort, MaxPort] that refuses TCP
// connections on loopback. The port is not reserved.
func RandomFreePort() (int, error) {
	return randomFreePort(maxPortAttempts, portInUse)
}

func randomFreePort(attempts int, inUse func(port int) bool) (int, error) {
	for range attempts {
		port := MinPort + rand.IntN(MaxPort-MinPort+1)
		if !inUse(port) {
			return port, nil
		}
	}
	return 0, ErrNoFreePort
}

func portInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 200*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
