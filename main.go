package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/bridge"
	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/config"
	"github.com/olivier-w/presto/internal/engine"
	"github.com/olivier-w/presto/internal/logger"
	"github.com/olivier-w/presto/internal/player"
	"github.com/olivier-w/presto/internal/ui"
)

// shutdownGrace is how long past the quit fade we wait for the engine.
const shutdownGrace = 2 * time.Second

var (
	flagConfig  string
	flagLogFile string
	flagShuffle bool
	flagLoop    string
)

var rootCmd = &cobra.Command{
	Use:           "presto [dir|playlist]",
	Short:         "presto is a keyboard-driven music player for your terminal.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := "."
		if len(args) == 1 {
			arg = args[0]
		}
		settings, err := loadSettings(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		return run(arg, settings)
	},
}

func init() {
	bindFlags(rootCmd)
}

func bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagConfig, "config", "", "config file (default $XDG_CONFIG_HOME/presto/config.toml)")
	cmd.Flags().StringVar(&flagLogFile, "log-file", "", "write logs to this file")
	cmd.Flags().BoolVar(&flagShuffle, "shuffle", false, "start with shuffle on")
	cmd.Flags().StringVar(&flagLoop, "loop", "", "start in this loop mode (no-loop, loop-all, loop-one)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings reads the config file and applies command-line overrides.
// On error the returned settings are still usable.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path := flagConfig
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return config.Default(), err
		}
	}
	settings, loadErr := config.Load(path)

	flags := cmd.Flags()
	if flags.Changed("log-file") {
		settings.Log.File = flagLogFile
	}
	if flags.Changed("shuffle") {
		settings.Playback.Shuffle = flagShuffle
	}
	if flags.Changed("loop") {
		if _, err := engine.ParseLoopMode(flagLoop); err != nil {
			return settings, errors.Join(loadErr, fmt.Errorf("--loop: %w", err))
		}
		settings.Playback.LoopMode = flagLoop
	}
	return settings, loadErr
}

func run(arg string, settings config.Settings) error {
	log, closer, err := logger.New(settings.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	log.Info("starting", zap.String("library", arg))

	cat, err := openLibrary(arg, settings.ScanOptions(), log)
	if err != nil {
		return err
	}

	device, err := player.NewDevice()
	if err != nil {
		return fmt.Errorf("presto: %w", err)
	}
	defer device.Close()

	eng, err := engine.New(cat, engine.Options{
		Output:    device,
		Crossfade: settings.Crossfade(),
		Loop:      settings.LoopMode(),
		Shuffle:   settings.Playback.Shuffle,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	subs := subscribe(eng, settings)
	defer subs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("engine stopped", zap.Error(err))
		}
	}()

	requests := make(chan app.Request, 16)
	startBridges(ctx, cat, settings, requests, subs.mpris, subs.remote, log)

	state := app.New(cat, app.Config{
		Follow:    settings.UI.FollowPlayback,
		Loop:      settings.LoopMode(),
		Shuffle:   settings.Playback.Shuffle,
		ScrubStep: settings.ScrubStep(),
		QuitFade:  settings.QuitFade(),
	})
	for _, cmd := range state.Start() {
		if err := eng.Send(cmd); err != nil {
			return err
		}
	}

	model := ui.New(ui.Options{
		State:    state,
		Engine:   eng,
		Events:   subs.ui.C(),
		Requests: requests,
		Status:   statusLine(settings),
		Header:   settings.UI.HeaderText,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	shutdownCtx, stop := context.WithTimeout(context.Background(), settings.QuitFade()+shutdownGrace)
	defer stop()
	if err := eng.Shutdown(shutdownCtx, settings.QuitFade()); err != nil {
		log.Warn("engine shutdown", zap.Error(err))
	}
	log.Info("exiting")
	return runErr
}

// subscriptions are the event streams of the UI and the bridges. remote is
// nil when the remote bridge is disabled.
type subscriptions struct {
	ui, mpris, remote *engine.Subscription
}

// subscribe must run before the engine starts so every subscriber sees its
// first snapshot.
func subscribe(eng *engine.Engine, settings config.Settings) subscriptions {
	subs := subscriptions{ui: eng.Subscribe(), mpris: eng.Subscribe()}
	if settings.Remote.ListenAddr != "" {
		subs.remote = eng.Subscribe()
	}
	return subs
}

func (s subscriptions) Close() {
	s.ui.Close()
	s.mpris.Close()
	if s.remote != nil {
		s.remote.Close()
	}
}

// startBridges brings up the optional control surfaces. Failures are logged;
// the player works without them. remoteEvents is nil when the remote bridge
// is disabled.
func startBridges(ctx context.Context, cat *catalog.Catalog, settings config.Settings, requests chan<- app.Request, mprisEvents, remoteEvents *engine.Subscription, log *zap.Logger) {
	loop, shuffle := settings.LoopMode(), settings.Playback.Shuffle

	mpris, err := bridge.StartMPRIS(ctx, bridge.NewTracker(cat, loop, shuffle), requests, log.Named("mpris"))
	if err != nil {
		log.Warn("mpris bridge unavailable", zap.Error(err))
		mprisEvents.Close()
	} else {
		go func() {
			mpris.Run(ctx, mprisEvents.C())
			mpris.Close()
		}()
	}

	if remoteEvents == nil {
		return
	}
	addr := settings.Remote.ListenAddr
	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Warn("remote bridge unavailable", zap.String("addr", addr), zap.Error(err))
		remoteEvents.Close()
		return
	}
	remote := bridge.NewRemote(ctx, bridge.NewTracker(cat, loop, shuffle), requests, log.Named("remote"))
	go func() {
		if err := remote.Serve(ctx, l); err != nil {
			log.Error("remote bridge stopped", zap.Error(err))
		}
	}()
	go func() {
		defer remoteEvents.Close()
		remote.Run(ctx, remoteEvents.C())
	}()
}

func statusLine(settings config.Settings) ui.StatusLine {
	line := ui.DefaultStatusLine()
	if fields, err := catalog.ParseFields(settings.UI.NowPlayingTrackFields); err == nil {
		line.TrackFields = fields
	}
	if fields, err := ui.ParseTimeFields(settings.UI.NowPlayingTimeFields); err == nil {
		line.TimeFields = fields
	}
	line.TrackSeparator = settings.UI.NowPlayingTrackSeparator
	line.TimeSeparator = settings.UI.NowPlayingTimeSeparator
	return line
}
