package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultConnectTimeout bounds Dial when the caller's context has no
// deadline.
const DefaultConnectTimeout = 15 * time.Second

// Conn is the part of a socket.io client the bridge uses.
type Conn interface {
	On(event string, fn func(args ...any))
	Emit(event string, args ...any)
	ID() string
	Close()
}

// DialConfig locates the hub.
type DialConfig struct {
	URL                string `yaml:"url" validate:"omitempty,url"`
	Namespace          string `yaml:"namespace"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// socketConn adapts a socket.io client socket to Conn.
type socketConn struct {
	io *socket.Socket
}

func (c *socketConn) On(event string, fn func(args ...any)) {
	c.io.On(types.EventName(event), func(args ...any) { fn(args...) })
}

func (c *socketConn) Emit(event string, args ...any) {
	c.io.Emit(event, args...)
}

func (c *socketConn) ID() string { return string(c.io.Id()) }

func (c *socketConn) Close() { c.io.Disconnect() }

// Dial connects to a socket.io hub over websocket and waits for the
// connection to be acknowledged.
func Dial(ctx context.Context, cfg DialConfig) (Conn, error) {
	logger := ctxlog.FromContext(ctx).With("component", "remote", "url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q has no scheme or host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to hub.", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connected <- err:
		default:
		}
	})

	logger.Debug("Connecting to hub.")
	io.Connect()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultConnectTimeout)
		defer cancel()
	}

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &socketConn{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	}
}
