package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kraktus/fen-manim/internal/artifactcache"
	"github.com/kraktus/fen-manim/internal/config"
	"github.com/kraktus/fen-manim/internal/driver"
	"github.com/kraktus/fen-manim/internal/history"
	"github.com/kraktus/fen-manim/internal/msgcat"
	"go.uber.org/zap"
)

// Deps owns everything the pipeline talks to.
type Deps struct {
	Pipeline *Pipeline
	Cache    *artifactcache.Store
	History  history.Repository
	Client   *driver.Client
	WS       *driver.WebSocket
	Egress   driver.Egress
}

// New wires the optional services named by cfg. Redis, history and the
// driver are all optional; an unreachable Redis is logged and skipped.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	// Cache (Redis optional)
	if cfg.RedisURL != "" {
		store, err := artifactcache.Open(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warn("cache_disabled", zap.Error(err))
		} else {
			d.Cache = store
		}
	}

	// History (optional)
	if cfg.HistoryDSN != "" || cfg.HistoryDriver == history.DriverMemory {
		repo, err := history.Open(ctx, cfg.HistoryDriver, cfg.HistoryDSN)
		if err != nil {
			_ = d.Close(ctx)
			return nil, fmt.Errorf("open history: %w", err)
		}
		d.History = repo
	}

	// Driver (optional)
	if err := d.wireDriver(ctx, cfg, logger); err != nil {
		_ = d.Close(ctx)
		return nil, err
	}

	opts := []PipelineOption{WithCatalog(catalog)}
	if d.Cache != nil {
		opts = append(opts, WithCache(d.Cache))
	}
	if d.History != nil {
		opts = append(opts, WithHistory(d.History))
	}
	if d.Egress != nil {
		opts = append(opts, WithEgress(d.Egress))
	}
	d.Pipeline = NewPipeline(logger, opts...)
	return d, nil
}

func (d *Deps) wireDriver(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) error {
	if cfg.DriverURL == "" && cfg.DriverWSURL == "" {
		return nil
	}
	headers := driver.BearerToken(cfg.DriverToken)
	if cfg.DriverURL != "" {
		d.Client = driver.NewClient(cfg.DriverURL,
			driver.WithHeaderProvider(headers),
			driver.WithTimeout(cfg.DriverTimeout),
		)
	}

	var ws driver.WSClient
	if cfg.DriverWSURL != "" && cfg.DriverMode != "http" {
		d.WS = driver.NewWebSocket(cfg.DriverWSURL, 5, 0)
		d.WS.SetHeaderProvider(headers)
		d.WS.OnStateChange(func(s driver.WebSocketState) {
			logger.Debug("driver_ws_state", zap.String("state", s.String()))
		})
		d.WS.OnMessage(func(m *driver.Message) {
			if m.Type == driver.MessageError {
				logger.Warn("driver_error", zap.String("scene", m.Scene), zap.Int("index", m.Index), zap.String("error", m.Error))
				return
			}
			logger.Debug("driver_message", zap.String("type", m.Type), zap.Int("index", m.Index))
		})
		cctx, cancel := context.WithTimeout(ctx, cfg.DriverTimeout)
		err := d.WS.Connect(cctx)
		cancel()
		if err != nil {
			if cfg.DriverMode == "ws" {
				return fmt.Errorf("connect driver ws: %w", err)
			}
			logger.Warn("driver_ws_unavailable", zap.Error(err))
		}
		ws = d.WS
	}

	if d.Client == nil && ws == nil {
		return errors.New("driver mode " + cfg.DriverMode + " has no usable endpoint")
	}
	d.Egress = driver.NewEgress(cfg.DriverMode, false, d.Client, ws, logger)
	return nil
}

// Close releases connections in reverse order of creation.
func (d *Deps) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	var errs []string
	if d.WS != nil {
		if err := d.WS.Close(ctx); err != nil {
			errs = append(errs, "ws: "+err.Error())
		}
	}
	if d.History != nil {
		if err := d.History.Close(); err != nil {
			errs = append(errs, "history: "+err.Error())
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, "cache: "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
