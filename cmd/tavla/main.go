package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tavla/internal/datasource"
	"github.com/vanderheijden86/tavla/pkg/board"
	"github.com/vanderheijden86/tavla/pkg/config"
	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/export"
	"github.com/vanderheijden86/tavla/pkg/gesture"
	"github.com/vanderheijden86/tavla/pkg/layout"
	"github.com/vanderheijden86/tavla/pkg/metrics"
	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/store"
	"github.com/vanderheijden86/tavla/pkg/ui"
	"github.com/vanderheijden86/tavla/pkg/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// options holds the parsed command line.
type options struct {
	configPath    string
	boardName     string
	feeds         string
	storeBackend  string
	width         int
	print         bool
	exportPath    string
	reset         bool
	init          bool
	stats         bool
	sessionLayout bool
	version       bool
	help          bool
	cpuProfile    string
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("tavla", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Config file (default: XDG config dir)")
	fs.StringVar(&o.boardName, "board", "", "Board id or name from the config")
	fs.StringVar(&o.feeds, "feed", "", "Comma-separated feed files or directories (overrides config)")
	fs.StringVar(&o.storeBackend, "store", "", "State backend: sqlite, file or memory (overrides config)")
	fs.IntVar(&o.width, "width", 200, "Viewport width in cells for -print and -export")
	fs.BoolVar(&o.print, "print", false, "Print the effective order and layout as JSON and exit")
	fs.StringVar(&o.exportPath, "export", "", "Write the layout as SVG or PNG to this path and exit")
	fs.BoolVar(&o.reset, "reset", false, "Clear the saved order and layout of the board and exit")
	fs.BoolVar(&o.init, "init", false, "Run the setup wizard and write a config file")
	fs.BoolVar(&o.stats, "stats", false, "Print timing metrics on exit")
	fs.BoolVar(&o.sessionLayout, "session-layout", false, "Use a layout key that lasts only for this session")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	err := fs.Parse(args)
	return o, fs, err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.help {
		fmt.Fprintln(stdout, "Usage: tavla [options]")
		fmt.Fprintln(stdout, "\nA terminal departure board with long-press tile reordering.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return exitOK
	}
	if opts.version {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return exitFailure
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return exitFailure
		}
		defer pprof.StopCPUProfile()
	}
	if opts.stats {
		metrics.SetEnabled(true)
		defer metrics.WriteSummary(stderr)
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	if opts.init {
		if cfgPath == "" {
			fmt.Fprintln(stderr, "Error: cannot determine config directory; pass -config")
			return exitUsage
		}
		if _, err := export.RunInitWizard(cfgPath, stdout); err != nil {
			fmt.Fprintf(stderr, "Setup failed: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	cfg, err := loadConfig(cfgPath, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	boardCfg, ok := cfg.FindBoard(opts.boardName)
	if !ok {
		fmt.Fprintf(stderr, "Error: no board %q in %s\n", opts.boardName, cfgPath)
		return exitUsage
	}
	table, err := cfg.BreakpointTable()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	backend, err := store.Open(cfg.Store.Backend, cfg.Store.ResolvedPath())
	if err != nil {
		fmt.Fprintf(stderr, "Error opening board state: %v\n", err)
		return exitFailure
	}
	st := store.NewAdapter(backend)
	defer st.Close()

	dashboardKey := boardCfg.DashboardKey
	if opts.sessionLayout {
		dashboardKey = board.SessionDashboardKey()
	}

	var viewport layout.ViewportProvider = layout.WidthViewport{Table: table, Width: opts.width}
	sched := gesture.NewLoopScheduler()
	b, err := board.New(board.Options{
		ID:           boardCfg.ID,
		DashboardKey: dashboardKey,
		Store:        st,
		Allocator:    layout.NewAllocator(table),
		Viewport:     viewport,
		Scheduler:    sched,
		Gesture:      cfg.GestureConfig(),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	if opts.reset {
		b.Reset()
		fmt.Fprintf(stdout, "Cleared saved order and layout of board %q\n", boardCfg.ID)
		return exitOK
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var agg *datasource.Aggregator
	snap := model.DataSnapshot{MapEnabled: boardCfg.ShowMap}
	if len(cfg.Feeds.Paths) > 0 {
		agg, err = datasource.NewAggregator(cfg.Feeds.Paths, datasource.AggregatorOptions{
			Debounce:     cfg.Feeds.Debounce(),
			PollInterval: cfg.Feeds.PollInterval(),
			ForcePoll:    cfg.Feeds.ForcePoll,
			MapEnabled:   boardCfg.ShowMap,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		defer agg.Close()
		if snap, err = agg.Load(ctx); err != nil {
			fmt.Fprintf(stderr, "Error loading feeds: %v\n", err)
			return exitFailure
		}
	}
	b.ApplySnapshot(snap)

	title := boardCfg.Name
	if title == "" {
		title = boardCfg.ID
	}

	if opts.print {
		if err := printBoard(stdout, b, agg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		return exitOK
	}
	if opts.exportPath != "" {
		err := export.SaveLayoutSnapshot(export.LayoutSnapshotOptions{
			Path:       opts.exportPath,
			Title:      title,
			Breakpoint: b.Breakpoint(),
			Columns:    b.Columns(),
			Tiles:      b.Tiles(),
			Layout:     b.Layout(),
		})
		if err != nil {
			fmt.Fprintf(stderr, "Export failed: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Layout written to %s\n", opts.exportPath)
		return exitOK
	}

	uiOpts := ui.Options{
		Title:       title,
		Scheduler:   sched,
		Breakpoints: table,
		ExportPath:  boardCfg.ID + "-layout.svg",
	}
	if agg != nil {
		uiOpts.Feeds = agg
	}
	m := ui.NewModel(b, uiOpts)
	if err := runTUIProgram(ctx, m, agg); err != nil {
		fmt.Fprintf(stderr, "Error running tavla: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(path string, opts options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	if opts.feeds != "" {
		cfg.Feeds.Paths = splitList(opts.feeds)
	}
	if opts.storeBackend != "" {
		cfg.Store.Backend = strings.ToLower(opts.storeBackend)
		// A path configured for another backend does not apply.
		cfg.Store.Path = ""
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// boardOutput is the -print document.
type boardOutput struct {
	Board        string                  `json:"board"`
	Breakpoint   model.Breakpoint        `json:"breakpoint"`
	Columns      int                     `json:"columns"`
	Order        model.TileOrder         `json:"order"`
	DefaultOrder model.TileOrder         `json:"default_order"`
	Tiles        []model.Tile            `json:"tiles"`
	Layout       map[string]model.Rect   `json:"layout"`
	Feeds        []datasource.FeedSource `json:"feeds,omitempty"`
}

// printBoard writes the -print document. agg may be nil when no feeds are
// configured.
func printBoard(w io.Writer, b *board.Board, agg *datasource.Aggregator) error {
	out := boardOutput{
		Board:        b.ID(),
		Breakpoint:   b.Breakpoint(),
		Columns:      b.Columns(),
		Order:        b.Order(),
		DefaultOrder: b.DefaultOrder(),
		Tiles:        b.Tiles(),
		Layout:       b.Layout(),
	}
	if agg != nil {
		out.Feeds = agg.Sources()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func runTUIProgram(ctx context.Context, m ui.Model, agg *datasource.Aggregator) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	if agg != nil {
		err := agg.Watch(ctx,
			func(snap model.DataSnapshot, diff datasource.SnapshotDiff) {
				p.Send(ui.SnapshotMsg{Snapshot: snap, Diff: diff})
			},
			func(err error) {
				p.Send(ui.FeedErrorMsg{Err: err})
			})
		if err != nil {
			debug.Log("main: feed watching disabled: %v", err)
		}
		if agg.Polling() {
			debug.Log("main: watching feeds by polling")
		}
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		select {
		case <-runDone:
			return
		case <-ctx.Done():
		}

		p.Quit()

		select {
		case <-runDone:
		case <-time.After(5 * time.Second):
			p.Kill()
		}
	}()

	// Optional auto-quit for automated runs: set TAVLA_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TAVLA_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
