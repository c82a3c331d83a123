package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kraktus/fen-manim/internal/scene"
	"go.uber.org/zap"
)

// Egress hands a storyboard to the driver and reports the transport used.
type Egress interface {
	Deliver(ctx context.Context, sb *scene.Storyboard) (string, error)
}

type transportMode string

const (
	transportHTTP transportMode = "http"
	transportWS   transportMode = "ws"
	transportAuto transportMode = "auto"
)

// ValidMode reports whether mode names a transport.
func ValidMode(mode string) bool {
	switch transportMode(strings.ToLower(strings.TrimSpace(mode))) {
	case transportHTTP, transportWS, transportAuto:
		return true
	}
	return false
}

// NewEgress creates an Egress based on mode. When mode is auto, WS is
// preferred when connected; on WS failure it falls back to HTTP once.
func NewEgress(mode string, dryrun bool, c *Client, ws WSClient, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch transportMode(strings.ToLower(strings.TrimSpace(mode))) {
	case transportWS:
		return &wsEgress{ws: ws, dryrun: dryrun, logger: logger}
	case transportAuto:
		return &autoEgress{ws: &wsEgress{ws: ws, dryrun: dryrun, logger: logger}, http: &httpEgress{c: c, dryrun: dryrun, logger: logger}, logger: logger}
	default:
		return &httpEgress{c: c, dryrun: dryrun, logger: logger}
	}
}

type httpEgress struct {
	c      *Client
	dryrun bool
	logger *zap.Logger
}

func (h *httpEgress) Deliver(ctx context.Context, sb *scene.Storyboard) (string, error) {
	if h == nil || h.c == nil {
		return "", errors.New("http egress not available")
	}
	if sb == nil {
		return "", ErrNilStoryboard
	}
	if h.dryrun {
		h.logger.Info("http_egress_dryrun", zap.String("scene", sb.Name), zap.Int("steps", len(sb.Steps)))
		return string(transportHTTP), nil
	}
	resp, err := h.c.Submit(ctx, sb)
	if err != nil {
		return "", err
	}
	if !resp.Accepted {
		return "", fmt.Errorf("driver rejected scene %s: %s", sb.Name, resp.Message)
	}
	h.logger.Info("storyboard_submitted", zap.String("scene", sb.Name), zap.String("id", resp.ID), zap.Int("frames", resp.Frames))
	return string(transportHTTP), nil
}

// wsEgress streams one frame per step, in order.
type wsEgress struct {
	ws     WSClient
	dryrun bool
	logger *zap.Logger
}

func (w *wsEgress) connected() bool {
	return w != nil && w.ws != nil && w.ws.State() == WSStateConnected
}

func (w *wsEgress) Deliver(ctx context.Context, sb *scene.Storyboard) (string, error) {
	if w == nil || w.ws == nil {
		return "", errors.New("ws egress not available")
	}
	if sb == nil {
		return "", ErrNilStoryboard
	}
	frames := sb.Frames()
	if w.dryrun {
		w.logger.Info("ws_egress_dryrun", zap.String("scene", sb.Name), zap.Int("frames", len(frames)))
		return string(transportWS), nil
	}
	for _, f := range frames {
		if err := w.ws.SendFrame(ctx, f); err != nil {
			return "", fmt.Errorf("send frame %d/%d: %w", f.Index+1, f.Total, err)
		}
	}
	w.logger.Debug("storyboard_streamed", zap.String("scene", sb.Name), zap.Int("frames", len(frames)))
	return string(transportWS), nil
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) Deliver(ctx context.Context, sb *scene.Storyboard) (string, error) {
	if a.ws.connected() {
		target, err := a.ws.Deliver(ctx, sb)
		if err == nil {
			return target, nil
		}
		a.logger.Warn("egress_fallback", zap.String("scene", sceneName(sb)), zap.Error(err))
	}
	return a.http.Deliver(ctx, sb)
}

func sceneName(sb *scene.Storyboard) string {
	if sb == nil {
		return ""
	}
	return sb.Name
}
