package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/gg"

	"github.com/1broseidon/wallrender/internal/config"
	"github.com/1broseidon/wallrender/internal/ipc"
	"github.com/1broseidon/wallrender/internal/platform"
	"github.com/1broseidon/wallrender/internal/render"
	"github.com/1broseidon/wallrender/internal/scene"
	"github.com/1broseidon/wallrender/internal/viewport"
	"github.com/1broseidon/wallrender/internal/x11"
)

// screenList collects repeated --screen-root values in order.
type screenList []string

func (s *screenList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *screenList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type runOptions struct {
	screens    screenList
	fps        int
	scene      string
	configPath string
	display    string
	noIPC      bool

	// set holds the names of flags given on the command line.
	set map[string]bool
}

func printRunUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: wallrender run [--screen-root NAME]... [--fps N] [--scene NAME]")
	fmt.Fprintln(w, "                      [--config PATH] [--display DISPLAY] [--no-ipc]")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Scenes: %s\n", strings.Join(scene.Names(), ", "))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
}

// errRunUsage reports a command line that was rejected after its usage was
// printed.
var errRunUsage = errors.New("invalid run arguments")

func parseRunFlags(args []string, out io.Writer) (*runOptions, error) {
	opts := &runOptions{set: map[string]bool{}}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Var(&opts.screens, "screen-root", "Draw on the root window inside RandR output NAME (repeatable)")
	fps := fs.String("fps", "", "Frame rate cap; 0 or negative disables pacing")
	fs.StringVar(&opts.scene, "scene", "", "Scene to render")
	fs.StringVar(&opts.configPath, "config", "", "Config file path (default: ~/.config/wallrender/config.yaml)")
	fs.StringVar(&opts.display, "display", "", "X display to connect to (default: $DISPLAY)")
	fs.BoolVar(&opts.noIPC, "no-ipc", false, "Do not start the status socket")
	fs.Usage = func() { printRunUsage(out, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(out, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return nil, errRunUsage
	}

	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.fps = atoi(*fps)
	return opts, nil
}

// atoi parses the leading decimal integer of s the way C atoi does:
// leading whitespace and one sign are accepted, parsing stops at the first
// non-digit, and a string with no digits yields 0.
func atoi(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > math.MaxInt32 {
			n = math.MaxInt32
		}
	}
	if neg {
		return -n
	}
	return n
}

// applyRunOptions overlays command-line values on the loaded config and
// records them as flag sources.
func applyRunOptions(res *config.LoadResult, opts *runOptions) {
	cfg := res.Config
	if opts.set["screen-root"] {
		cfg.Screens = append([]string(nil), opts.screens...)
		res.Override("screens", "--screen-root")
	}
	if opts.set["fps"] {
		cfg.FPS = opts.fps
		res.Override("fps", "--fps")
	}
	if opts.set["scene"] {
		cfg.Scene = strings.TrimSpace(opts.scene)
		res.Override("scene", "--scene")
	}
	if opts.set["display"] {
		cfg.Display = strings.TrimSpace(opts.display)
		res.Override("display", "--display")
	}
	if opts.noIPC {
		cfg.IPC = false
		res.Override("ipc", "--no-ipc")
	}
}

func runRender(args []string) int {
	opts, err := parseRunFlags(args, os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	applyRunOptions(res, opts)

	cfg := res.Config
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var verr *config.ValidationError
		if errors.As(err, &verr) && res.Sources[verr.Path].Kind == config.SourceFlag {
			return 2
		}
		return 1
	}
	for _, w := range cfg.Warnings() {
		log.Printf("Warning: %s", w)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	gg.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := renderWallpaper(ctx, cfg, logger); err != nil {
		log.Printf("wallrender: %v", err)
		return 1
	}
	log.Println("wallrender stopped")
	return 0
}

// renderWallpaper runs the startup sequence and blocks in the frame loop
// until ctx is cancelled, a STOP request arrives, or the window is closed.
func renderWallpaper(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	display, err := x11.ResolveDisplay(cfg.Display)
	if err != nil {
		return err
	}
	if err := display.Apply(); err != nil {
		logger.Warn("failed to export XAUTHORITY", "error", err)
	}
	logger.Debug("using X display", "display", display.Display, "source", display.Source)

	intent := viewport.NewIntent(cfg.Screens)
	if err := intent.Validate(); err != nil {
		return err
	}

	state := newRendererState(cfg, intent)
	if intent.NeedsDiscovery() {
		outputs, err := platform.DiscoverOutputs(display.Display)
		if err != nil {
			logger.Warn("output discovery failed, drawing on the whole root window", "error", err)
		}
		state.setDiscovery(outputs, err)
	}

	plan := viewport.Resolve(intent, state.outputs)
	state.plan = plan
	for _, name := range viewport.Unmatched(intent, plan) {
		logger.Warn("no connected output with geometry matches screen", "screen", name)
	}
	for _, vp := range plan.Viewports {
		logger.Info("viewport resolved", "output", vp.Output, "rect", vp.Rect.String())
	}
	if intent.Mode == viewport.ModeRoot && plan.FullSurface() {
		logger.Info("no viewports resolved, drawing on the whole root window")
	}

	bg, err := scene.ParseColor(cfg.ClearColor)
	if err != nil {
		return err
	}
	sc, err := scene.New(cfg.Scene, bg)
	if err != nil {
		return err
	}

	dev, err := platform.NewSoftwareDevice(platform.DeviceOptions{
		Root:    plan.Target == viewport.TargetRoot,
		Display: display.Display,
		Title:   cfg.Window.Title,
		Width:   cfg.Window.Width,
		Height:  cfg.Window.Height,
		Scene:   sc,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create render device: %w", err)
	}
	defer dev.Close()

	if err := checkCapabilities(dev.Capabilities(), logger); err != nil {
		return err
	}

	sched := render.NewScheduler(render.Options{
		MaxFPS:    cfg.FPS,
		Viewports: plan.Rects(),
		Logger:    logger,
	}, dev, sc, nil)
	state.sched = sched

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if cfg.IPC {
		if srv := startStatusServer(state, stop); srv != nil {
			defer srv.Stop()
		}
	}

	log.Printf("wallrender started (%s mode, %s target, scene %s, %d viewport(s))",
		intent.Mode, plan.Target, cfg.Scene, len(plan.Viewports))
	return sched.Run(ctx)
}

// checkCapabilities warns about missing shader stages and rejects devices
// that cannot render to a target.
func checkCapabilities(caps render.Capabilities, logger *slog.Logger) error {
	if !caps.PixelShaders {
		logger.Warn("render device has no pixel shader support")
	}
	if !caps.VertexShaders {
		logger.Warn("render device has no vertex shader support")
	}
	if !caps.RenderToTarget {
		return errors.New("render device cannot render to a target")
	}
	return nil
}

func startStatusServer(state *rendererState, stop func()) *ipc.Server {
	srv, err := ipc.NewServer("", state, stop)
	if err != nil {
		log.Printf("Warning: status socket disabled: %v", err)
		return nil
	}
	if err := srv.Start(); err != nil {
		log.Printf("Warning: status socket disabled: %v", err)
		return nil
	}
	return srv
}

// rendererState answers status queries for a running renderer.
type rendererState struct {
	cfg     *config.Config
	intent  viewport.Intent
	plan    viewport.Plan
	outputs []platform.Output
	discErr error
	sched   *render.Scheduler
	started time.Time
	pid     int
}

var _ ipc.StatusProvider = (*rendererState)(nil)

func newRendererState(cfg *config.Config, intent viewport.Intent) *rendererState {
	return &rendererState{
		cfg:     cfg,
		intent:  intent,
		started: time.Now(),
		pid:     os.Getpid(),
	}
}

func (s *rendererState) setDiscovery(outputs []platform.Output, err error) {
	s.outputs = outputs
	s.discErr = err
}

func (s *rendererState) Status() ipc.StatusData {
	st := ipc.StatusData{
		Running:       s.sched != nil,
		PID:           s.pid,
		Mode:          s.intent.Mode.String(),
		Target:        s.plan.Target.String(),
		Scene:         s.cfg.Scene,
		MaxFPS:        s.cfg.FPS,
		Viewports:     len(s.plan.Viewports),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if s.sched == nil {
		return st
	}

	st.FramePeriodMillis = s.sched.Period().Milliseconds()
	snap := s.sched.Stats().Snapshot()
	st.FramesDrawn = snap.FramesDrawn
	st.SkippedIterations = snap.SkippedIterations
	st.Overruns = snap.Overruns
	st.DrawErrors = snap.DrawErrors
	st.LastFrameMillis = float64(snap.LastFrame.Microseconds()) / 1000
	return st
}

func (s *rendererState) Outputs() ipc.OutputsData {
	data := ipc.OutputsData{
		Requested: append([]string{}, s.intent.Outputs...),
		Outputs:   outputInfos(s.outputs),
		Viewports: make([]ipc.ViewportInfo, 0, len(s.plan.Viewports)),
		Unmatched: viewport.Unmatched(s.intent, s.plan),
	}
	for _, vp := range s.plan.Viewports {
		data.Viewports = append(data.Viewports, ipc.ViewportInfo{
			Output: vp.Output,
			X0:     vp.Rect.Min.X,
			Y0:     vp.Rect.Min.Y,
			X1:     vp.Rect.Max.X,
			Y1:     vp.Rect.Max.Y,
		})
	}
	if s.discErr != nil {
		data.DiscoveryError = s.discErr.Error()
	}
	return data
}

func outputInfos(outputs []platform.Output) []ipc.OutputInfo {
	infos := make([]ipc.OutputInfo, 0, len(outputs))
	for _, o := range outputs {
		info := ipc.OutputInfo{Name: o.Name, Connected: o.Connected}
		if o.Geometry != nil {
			info.HasGeometry = true
			info.X = o.Geometry.X
			info.Y = o.Geometry.Y
			info.Width = o.Geometry.Width
			info.Height = o.Geometry.Height
		}
		infos = append(infos, info)
	}
	return infos
}
