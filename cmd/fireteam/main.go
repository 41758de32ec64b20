package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fireteam/roster/internal/api"
	"github.com/fireteam/roster/internal/assets"
	"github.com/fireteam/roster/internal/capture"
	"github.com/fireteam/roster/internal/config"
	"github.com/fireteam/roster/internal/imaging"
	"github.com/fireteam/roster/internal/influx"
	"github.com/fireteam/roster/internal/input"
	"github.com/fireteam/roster/internal/logging"
	"github.com/fireteam/roster/internal/pipeline"
	"github.com/fireteam/roster/internal/util"
)

// BuildDate can be set at build time via ldflags
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	AppName string = "fireteam"
)

const banner = "Running...\nSwitch back to Destiny 2 and open the Nearby list"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Stdout, ".")
	stop()
	os.Exit(code)
}

func run(ctx context.Context, out io.Writer, configDir string) int {
	fmt.Fprintln(out, banner)

	if err := config.Load(configDir); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	id, err := config.GetIdentity()
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	apiCfg, err := config.GetAPIConfig()
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	assetCfg, err := config.GetAssetConfig()
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	captureCfg := config.GetCaptureConfig()
	outputCfg := config.GetOutputConfig()

	start := time.Now()
	runID := uuid.NewString()
	level := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")

	logFile, err := openLogFile(logsDir, start)
	if err != nil {
		fmt.Fprintf(out, "Logging to console only: %v\n", err)
	} else {
		defer logFile.Close()
	}
	var logOut io.Writer
	if logFile != nil {
		logOut = logFile
	}

	var extra []slog.Handler
	var zlExtra []io.Writer
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.DialGraylog(gl.Address, AppName)
		if err != nil {
			fmt.Fprintf(out, "Graylog unavailable: %v\n", err)
		} else {
			defer w.Close()
			extra = append(extra, logging.NewGELFHandler(w, level))
			zlExtra = append(zlExtra, w)
		}
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logOut, level, logging.Run{ID: runID, Start: start}, extra...)
	logger := slogManager.Logger()
	zl := logging.NewZerolog(logOut, level, runID, zlExtra...)
	logger.Info("Starting", "app", AppName, "version", Version, "buildDate", BuildDate, "player", id.String())

	labeler, fellBack, err := imaging.LoadLabeler(assetCfg.FontPath, assetCfg.TextColor)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	if fellBack {
		logger.Warn("Label font unavailable, using built-in face", "fontPath", assetCfg.FontPath)
	}

	client := api.New(apiCfg.BaseURL, apiCfg.APIKey, apiCfg.Timeout)
	p, err := pipeline.New(pipeline.Options{
		RunID:             runID,
		Platform:          client,
		Source:            client,
		Injector:          input.New(captureCfg.KeyHold, captureCfg.RepeatGap),
		Labeler:           labeler,
		RosterConcurrency: config.GetInt("roster.concurrency"),
		Assets: assets.Config{
			Concurrency:  assetCfg.Concurrency,
			EmblemWidth:  assetCfg.EmblemWidth,
			EmblemHeight: assetCfg.EmblemHeight,
			GhostSize:    assetCfg.GhostSize,
			Label: imaging.LabelOptions{
				Indent:    assetCfg.LabelIndent,
				Lift:      assetCfg.LabelLift,
				StartSize: assetCfg.FontSize,
				MinSize:   assetCfg.MinFontSize,
			},
		},
		Capture:      captureConfig(captureCfg),
		WorkspaceDir: outputCfg.WorkspaceDir,
		OutputPath:   outputCfg.Path,
		RunTimeout:   outputCfg.RunTimeout,
		Logger:       logger,
		StepLogger:   logging.NewStepLogger(zl),
	})
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	rep, runErr := p.Run(ctx, id)
	reportInflux(ctx, zl, logsDir, rep)

	if runErr != nil {
		logger.Error("Run failed", "error", runErr)
		fmt.Fprintln(out, Message(runErr))
		return 1
	}

	printSummary(out, rep)
	logger.Info("Run complete", "cards", len(rep.Cards), "duration", rep.Duration)

	if outputCfg.OpenFolder {
		if err := util.OpenFolder(rep.OutputPath); err != nil {
			logger.Warn("Could not open output folder", "error", err)
		}
	}
	return 0
}

func openLogFile(logsDir string, start time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(logging.LogFilePath(logsDir, AppName, start), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func captureConfig(c config.CaptureConfig) capture.Config {
	return capture.Config{
		XRatio:            c.XRatio,
		YBase:             c.YBase,
		YStep:             c.YStep,
		DetailXRatio:      c.DetailXRatio,
		DetailYRatio:      c.DetailYRatio,
		Park:              image.Pt(c.ParkX, c.ParkY),
		CropLeft:          c.CropLeft,
		CropRight:         c.CropRight,
		Width:             c.Width,
		ContextKey:        c.ContextKey,
		InventoryKey:      c.InventoryKey,
		DismissKey:        c.DismissKey,
		SettleDelay:       c.SettleDelay,
		CaptureDelay:      c.CaptureDelay,
		ReleaseDelay:      c.ReleaseDelay,
		RequireInputBlock: c.RequireInputBlock,
	}
}

// reportInflux writes the run summary when influx is enabled.
func reportInflux(ctx context.Context, log zerolog.Logger, logsDir string, rep *pipeline.Report) {
	mgr := influx.NewManager(config.GetInfluxConfig(), log, filepath.Join(logsDir, AppName+"_influx_backup.lp.gz"))
	defer mgr.Close()

	// the run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := mgr.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			log.Error().Err(err).Msg("InfluxDB setup failed")
		}
		return
	}
	if err := mgr.WriteRun(ctx, rep.Summary()); err != nil {
		log.Error().Err(err).Msg("Failed to write run summary")
	}
}
