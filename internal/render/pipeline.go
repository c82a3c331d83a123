// Package render runs one scene end to end: position, board images,
// storyboard, cache, history and delivery.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraktus/fen-manim/internal/artifactcache"
	"github.com/kraktus/fen-manim/internal/boardsvg"
	"github.com/kraktus/fen-manim/internal/boardtext"
	"github.com/kraktus/fen-manim/internal/driver"
	"github.com/kraktus/fen-manim/internal/fenrun"
	"github.com/kraktus/fen-manim/internal/history"
	"github.com/kraktus/fen-manim/internal/msgcat"
	"github.com/kraktus/fen-manim/internal/position"
	"github.com/kraktus/fen-manim/internal/scene"
	"go.uber.org/zap"
)

const (
	EmptySVGName = "empty.svg"
	BoardSVGName = "board.svg"
	EmptyPNGName = "empty.png"
	BoardPNGName = "board.png"
)

type Request struct {
	FEN       string
	Scene     string
	OutputDir string
	Format    string
	Font      string
	PNG       bool
	PNGSize   int
	Deliver   bool
	// Text feeds the dots scene.
	Text string
}

type Result struct {
	RunID          string
	Storyboard     *scene.Storyboard
	StoryboardPath string
	BoardSVG       string
	EmptySVG       string
	PNGs           []string
	Runs           []fenrun.Run
	Compressed     string
	Cached         bool
	DeliveredTo    string
	Elapsed        time.Duration
}

// Cache is the subset of artifactcache.Store the pipeline uses.
type Cache interface {
	Get(ctx context.Context, scene, fen, variant string) (*artifactcache.Entry, error)
	Put(ctx context.Context, scene, fen, variant string, e *artifactcache.Entry) error
	Delete(ctx context.Context, scene, fen, variant string) error
}

type Pipeline struct {
	cache   Cache
	history history.Repository
	egress  driver.Egress
	catalog *msgcat.Catalog
	raster  boardsvg.Rasterizer
	svgOpts boardsvg.Options
	logger  *zap.Logger
}

type PipelineOption func(*Pipeline)

func WithCache(c Cache) PipelineOption { return func(p *Pipeline) { p.cache = c } }

func WithHistory(h history.Repository) PipelineOption { return func(p *Pipeline) { p.history = h } }

func WithEgress(e driver.Egress) PipelineOption { return func(p *Pipeline) { p.egress = e } }

func WithCatalog(c *msgcat.Catalog) PipelineOption { return func(p *Pipeline) { p.catalog = c } }

func NewPipeline(logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		raster:  boardsvg.NewRasterizer(),
		svgOpts: boardsvg.DefaultOptions(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.catalog == nil {
		p.catalog = msgcat.Default()
	}
	return p
}

func (p *Pipeline) Catalog() *msgcat.Catalog { return p.catalog }

func (p *Pipeline) History() history.Repository { return p.history }

// Run renders req.Scene for req.FEN and writes everything into req.OutputDir.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	req = normalizeRequest(req)

	pos, err := position.Parse(req.FEN)
	if err != nil {
		return nil, err
	}
	log := p.logger.With(zap.String("scene", req.Scene), zap.String("fen", pos.FEN()))
	log.Debug("position_loaded", zap.String("epd", pos.EPD()))

	one := boardtext.OneLine(pos.ASCII())
	res := &Result{
		Runs:           fenrun.Tokenize(one),
		Compressed:     fenrun.CompressString(one),
		BoardSVG:       filepath.Join(req.OutputDir, BoardSVGName),
		EmptySVG:       filepath.Join(req.OutputDir, EmptySVGName),
		StoryboardPath: filepath.Join(req.OutputDir, req.Scene+"."+req.Format),
	}
	log.Debug("board_segmented", zap.Int("runs", len(res.Runs)), zap.String("compressed", res.Compressed))

	entry := p.lookup(ctx, log, req)
	if entry != nil {
		res.Storyboard, err = p.reuse(entry, res.BoardSVG)
		if err != nil {
			log.Warn("cache_entry_unusable", zap.Error(err))
			p.evict(ctx, log, req)
			entry = nil
		}
	}
	if entry != nil {
		res.Cached = true
	} else {
		entry, res.Storyboard, err = p.build(req, pos, res.BoardSVG)
		if err != nil {
			return nil, err
		}
		p.store(ctx, log, req, entry)
	}

	if err := writeFile(res.EmptySVG, entry.EmptySVG); err != nil {
		return nil, err
	}
	if err := writeFile(res.BoardSVG, entry.SVG); err != nil {
		return nil, err
	}
	if err := writeFile(res.StoryboardPath, entry.Storyboard); err != nil {
		return nil, err
	}
	log.Info("artifacts_written", zap.String("dir", req.OutputDir), zap.Bool("cached", res.Cached))

	if req.PNG {
		res.PNGs, err = p.previews(ctx, req, pos, entry.EmptySVG)
		if err != nil {
			return nil, err
		}
		log.Debug("previews_written", zap.Strings("files", res.PNGs))
	}

	if req.Deliver && p.egress != nil {
		target, err := p.egress.Deliver(ctx, res.Storyboard)
		if err != nil {
			return nil, fmt.Errorf("deliver storyboard: %w", err)
		}
		res.DeliveredTo = target
		log.Info("storyboard_delivered", zap.String("target", target))
	}

	run := history.NewRun(req.Scene, pos.FEN())
	run.EPD = pos.EPD()
	run.BoardFEN = pos.BoardFEN()
	run.Compressed = res.Compressed
	run.Nodes = len(res.Storyboard.Nodes)
	run.Steps = len(res.Storyboard.Steps)
	run.OutputPath = res.StoryboardPath
	run.Cached = res.Cached
	run.DeliveredTo = res.DeliveredTo
	res.RunID = run.ID
	if p.history != nil {
		if err := p.history.Save(ctx, run); err != nil {
			log.Warn("history_save_failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	res.Elapsed = time.Since(started)
	log.Info("scene_rendered",
		zap.String("run_id", run.ID),
		zap.Int("nodes", run.Nodes),
		zap.Int("steps", run.Steps),
		zap.Duration("animation", res.Storyboard.Duration()),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Pipeline) build(req Request, pos *position.Position, boardPath string) (*artifactcache.Entry, *scene.Storyboard, error) {
	emptySVG, err := boardsvg.Bytes(position.Empty().Board(), p.svgOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("render empty board: %w", err)
	}
	boardSVG, err := boardsvg.Bytes(pos.Board(), p.svgOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("render board: %w", err)
	}
	sb, err := scene.Build(req.Scene, scene.Input{
		Position: pos,
		SVGPath:  boardPath,
		Font:     req.Font,
		Catalog:  p.catalog,
		Text:     req.Text,
	})
	if err != nil {
		return nil, nil, err
	}
	raw, err := sb.Encode(req.Format)
	if err != nil {
		return nil, nil, err
	}
	return &artifactcache.Entry{SVG: boardSVG, EmptySVG: emptySVG, Storyboard: raw, Format: req.Format}, sb, nil
}

// reuse decodes a cached storyboard and points its board image at this
// run's output directory.
func (p *Pipeline) reuse(e *artifactcache.Entry, boardPath string) (*scene.Storyboard, error) {
	sb, err := scene.Decode(e.Format, e.Storyboard)
	if err != nil {
		return nil, err
	}
	n, ok := sb.Node("board_svg")
	if !ok || n.Source == boardPath {
		return sb, nil
	}
	n.Source = boardPath
	raw, err := sb.Encode(e.Format)
	if err != nil {
		return nil, err
	}
	e.Storyboard = raw
	return sb, nil
}

// cacheVariant lists the request fields a storyboard depends on besides
// scene and position.
func cacheVariant(req Request) string {
	return strings.Join([]string{req.Font, req.Text, req.Format}, "\x00")
}

func (p *Pipeline) lookup(ctx context.Context, log *zap.Logger, req Request) *artifactcache.Entry {
	if p.cache == nil {
		return nil
	}
	e, err := p.cache.Get(ctx, req.Scene, req.FEN, cacheVariant(req))
	if errors.Is(err, artifactcache.ErrCorruptEntry) {
		log.Warn("cache_entry_unusable", zap.Error(err))
		p.evict(ctx, log, req)
		return nil
	}
	if err != nil {
		log.Warn("cache_get_failed", zap.Error(err))
		return nil
	}
	if e == nil || e.Format != req.Format {
		log.Debug("cache_miss")
		return nil
	}
	log.Debug("cache_hit", zap.Time("stored_at", e.StoredAt))
	return e
}

func (p *Pipeline) store(ctx context.Context, log *zap.Logger, req Request, e *artifactcache.Entry) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Put(ctx, req.Scene, req.FEN, cacheVariant(req), e); err != nil {
		log.Warn("cache_put_failed", zap.Error(err))
	}
}

func (p *Pipeline) evict(ctx context.Context, log *zap.Logger, req Request) {
	if err := p.cache.Delete(ctx, req.Scene, req.FEN, cacheVariant(req)); err != nil {
		log.Warn("cache_delete_failed", zap.Error(err))
	}
}

// previews writes board.png, and empty.png scaled from the empty board SVG
// since it has no piece letters to overlay.
func (p *Pipeline) previews(ctx context.Context, req Request, pos *position.Position, emptySVG []byte) ([]string, error) {
	opts := p.svgOpts
	opts.SquareSize = squareSizeFor(req.PNGSize)
	emptyPNG, err := boardsvg.RasterizePNG(emptySVG, opts.Size())
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", EmptyPNGName, err)
	}
	boardPNG, err := p.raster.RenderPNG(ctx, pos.Board(), opts)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", BoardPNGName, err)
	}
	var out []string
	for _, item := range []struct {
		name string
		data []byte
	}{{EmptyPNGName, emptyPNG}, {BoardPNGName, boardPNG}} {
		path := filepath.Join(req.OutputDir, item.name)
		if err := writeFile(path, item.data); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}

// Replay delivers a storyboard file written by an earlier run.
func (p *Pipeline) Replay(ctx context.Context, path string) (*scene.Storyboard, string, error) {
	if p.egress == nil {
		return nil, "", errors.New("no driver configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read storyboard: %w", err)
	}
	sb, err := scene.Decode(formatOf(path), raw)
	if err != nil {
		return nil, "", err
	}
	if err := sb.Validate(); err != nil {
		return nil, "", err
	}
	target, err := p.egress.Deliver(ctx, sb)
	if err != nil {
		return nil, "", fmt.Errorf("deliver storyboard: %w", err)
	}
	p.logger.Info("storyboard_replayed", zap.String("scene", sb.Name), zap.String("path", path), zap.String("target", target))
	return sb, target, nil
}

func normalizeRequest(req Request) Request {
	req.FEN = strings.TrimSpace(req.FEN)
	if req.FEN == "" {
		req.FEN = position.DefaultFEN
	}
	req.Scene = strings.ToLower(strings.TrimSpace(req.Scene))
	if req.Scene == "" {
		req.Scene = "fen"
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" || req.Format == "yml" {
		req.Format = "yaml"
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		req.OutputDir = "."
	}
	if req.PNGSize <= 0 {
		req.PNGSize = 400
	}
	return req
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// squareSizeFor picks the square size whose board with coordinates is
// closest to size pixels.
func squareSizeFor(size int) int {
	sq := size * 3 / 26
	if sq < 1 {
		sq = 1
	}
	return sq
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
