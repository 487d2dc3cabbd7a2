package influxdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

const (
	pingTimeout          = 5 * time.Second
	fallbackBatchSize    = 100
	fallbackFlushSeconds = 10
)

// Client queues telemetry points for a single bucket. Points are batched
// by the library and written in the background; nothing on the write path
// blocks the caller.
type Client struct {
	raw    influxdb2.Client
	points api.WriteAPI

	closed  atomic.Bool
	onError atomic.Pointer[func(error)]
}

// Connect checks the server answers a ping and returns a client writing
// to cfg.Bucket. It returns ErrDisabled when telemetry is switched off.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = fallbackBatchSize
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = fallbackFlushSeconds
	}
	// #nosec G115 -- both values are positive here
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint((time.Duration(flush) * time.Second).Milliseconds()))

	raw := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	if err := ping(context.Background(), raw); err != nil {
		raw.Close()
		return nil, err
	}

	c := &Client{raw: raw, points: raw.WriteAPI(cfg.Org, cfg.Bucket)}
	go c.forwardErrors()
	return c, nil
}

func ping(ctx context.Context, raw influxdb2.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := raw.Ping(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	case !ok:
		return fmt.Errorf("%w: unhealthy", ErrUnreachable)
	}
	return nil
}

// forwardErrors drains the write API's error channel until Close.
func (c *Client) forwardErrors() {
	for err := range c.points.Errors() {
		if fn := c.onError.Load(); fn != nil {
			(*fn)(err)
		}
	}
}

// SetOnError installs the callback for failed background writes.
func (c *Client) SetOnError(fn func(err error)) {
	if fn == nil {
		c.onError.Store(nil)
		return
	}
	c.onError.Store(&fn)
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClosed
	}
	return ping(ctx, c.raw)
}

// Close flushes queued points and releases the client. Later writes are
// dropped.
func (c *Client) Close() error {
	if c == nil || c.raw == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.points.Flush()
	c.raw.Close()
	return nil
}
