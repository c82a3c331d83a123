package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kraktus/fen-manim/internal/boardtext"
	appcfg "github.com/kraktus/fen-manim/internal/config"
	"github.com/kraktus/fen-manim/internal/fenrun"
	"github.com/kraktus/fen-manim/internal/history"
	"github.com/kraktus/fen-manim/internal/msgcat"
	"github.com/kraktus/fen-manim/internal/obslog"
	"github.com/kraktus/fen-manim/internal/position"
	"github.com/kraktus/fen-manim/internal/render"
	"github.com/kraktus/fen-manim/internal/scene"
	"go.uber.org/zap"
)

const usage = `usage: fenscene <command> [flags]

commands:
  render    build a scene storyboard and board images
  runs      print the piece and dot runs of a board
  scenes    list the available scenes
  history   list recent renders (needs a postgres or sqlite history)
  replay    send a storyboard file to the driver
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		obslog.L().Error("fenscene failed", zap.Error(err))
		obslog.Sync()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	obslog.Sync()
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "render":
		return renderCmd(ctx, rest, out)
	case "runs":
		return runsCmd(rest, out)
	case "scenes":
		for _, name := range scene.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	case "history":
		return historyCmd(ctx, rest, out)
	case "replay":
		return replayCmd(ctx, rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// setup parses flags, starts logging and wires the pipeline.
func setup(ctx context.Context, name string, args []string, extra func(fs *flag.FlagSet)) (*appcfg.AppConfig, *render.Deps, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if extra != nil {
		extra(fs)
	}
	cfg, err := appcfg.ParseFlags(fs, args)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := obslog.DefaultOptions()
	if cfg.LogFile != "" {
		opts.FilePath = cfg.LogFile
	}
	opts.Format = cfg.LogFormat
	opts.Console = cfg.LogConsole
	opts.File = cfg.LogToFile
	if err := obslog.Init(opts); err != nil {
		return nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}
	deps, err := render.New(ctx, cfg, obslog.L())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, deps, fs, nil
}

func renderCmd(ctx context.Context, args []string, out io.Writer) error {
	var text string
	cfg, deps, _, err := setup(ctx, "render", args, func(fs *flag.FlagSet) {
		fs.StringVar(&text, "text", "", "one-line string for the dots scene")
	})
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())

	res, err := deps.Pipeline.Run(ctx, render.Request{
		FEN:       cfg.FEN,
		Scene:     cfg.Scene,
		OutputDir: cfg.OutputDir,
		Format:    cfg.Format,
		Font:      cfg.Font,
		Text:      text,
		PNG:       cfg.PNG,
		PNGSize:   cfg.PNGSize,
		Deliver:   deps.Egress != nil,
	})
	if err != nil {
		return err
	}
	cat := deps.Pipeline.Catalog()
	if res.Cached {
		fmt.Fprintln(out, cat.RenderOr("cli.cached", map[string]any{"Scene": res.Storyboard.Name}, "served from cache"))
	}
	fmt.Fprintln(out, cat.RenderOr("cli.rendered", map[string]any{
		"Scene": res.Storyboard.Name,
		"Nodes": len(res.Storyboard.Nodes),
		"Steps": len(res.Storyboard.Steps),
		"Path":  res.StoryboardPath,
	}, res.StoryboardPath))
	if res.DeliveredTo != "" {
		fmt.Fprintln(out, cat.RenderOr("cli.delivered", map[string]any{"Target": res.DeliveredTo}, res.DeliveredTo))
	}
	return nil
}

func runsCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fen := fs.String("fen", position.DefaultFEN, "position whose board is split")
	text := fs.String("text", "", "split this one-line string instead of a position")
	segment := fs.String("segment", "", "expand this FEN board segment and split it")
	messages := fs.String("messages", "", "directory of message overrides (yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cat, err := msgcat.New(*messages)
	if err != nil {
		return err
	}
	s := *text
	if *segment != "" {
		s, err = fenrun.Expand(strings.TrimSpace(*segment))
		if err != nil {
			return err
		}
	}
	if s == "" {
		pos, err := position.Parse(*fen)
		if err != nil {
			return err
		}
		s = boardtext.OneLine(pos.ASCII())
	}
	runs := fenrun.Tokenize(s)
	fmt.Fprintln(out, cat.RenderOr("cli.runs_header", map[string]any{"Count": len(runs), "Text": s}, s))
	for _, r := range runs {
		fmt.Fprintln(out, cat.RenderOr("cli.run_line", map[string]any{"Offset": r.Offset, "Kind": r.Kind.String(), "Text": r.Text}, r.Text))
	}
	compressed := strings.Join(fenrun.Compress(runs), "")
	fmt.Fprintln(out, cat.RenderOr("cli.compressed", map[string]any{"Compressed": compressed}, compressed))
	return nil
}

var errMemoryHistory = errors.New("the memory history driver only lives for one process, use postgres or sqlite to list runs")

func historyCmd(ctx context.Context, args []string, out io.Writer) error {
	var limit int
	cfg, deps, _, err := setup(ctx, "history", args, func(fs *flag.FlagSet) {
		fs.IntVar(&limit, "n", history.DefaultRecentLimit, "number of runs to list")
	})
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())
	if cfg.HistoryDriver == history.DriverMemory {
		return errMemoryHistory
	}
	if deps.History == nil {
		return errors.New("history is disabled, set -history or FENSCENE_HISTORY_DSN")
	}
	runs, err := deps.History.Recent(ctx, limit)
	if err != nil {
		return err
	}
	cat := deps.Pipeline.Catalog()
	for _, r := range runs {
		fmt.Fprintln(out, cat.RenderOr("cli.history_line", map[string]any{
			"CreatedAt": r.CreatedAt.Format("2006-01-02 15:04:05"),
			"Scene":     r.Scene,
			"BoardFEN":  r.BoardFEN,
			"RunID":     r.ID,
		}, r.ID))
	}
	return nil
}

func replayCmd(ctx context.Context, args []string, out io.Writer) error {
	_, deps, fs, err := setup(ctx, "replay", args, nil)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())
	if fs.NArg() != 1 {
		return errors.New("replay needs exactly one storyboard file")
	}
	sb, target, err := deps.Pipeline.Replay(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	cat := deps.Pipeline.Catalog()
	fmt.Fprintln(out, cat.RenderOr("cli.delivered", map[string]any{"Target": target}, target), "("+sb.Name+")")
	return nil
}
