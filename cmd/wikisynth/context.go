package main

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/lueurxax/wikisynth/internal/app"
	"github.com/lueurxax/wikisynth/internal/platform/config"
)

const appEnvLocal = "local"

type commandContext struct {
	loadConfig func() (*config.Config, error)
	fs         afero.Fs
	logOutput  io.Writer

	once   sync.Once
	app    *app.App
	logger *zerolog.Logger
	err    error
}

func newCommandContext() *commandContext {
	return &commandContext{
		loadConfig: config.Load,
		fs:         afero.NewOsFs(),
		logOutput:  os.Stderr,
	}
}

// application loads the configuration and builds the App once per process.
func (c *commandContext) application(ctx context.Context) (*app.App, *zerolog.Logger, error) {
	c.once.Do(func() {
		cfg, err := c.loadConfig()
		if err != nil {
			c.err = err
			return
		}

		logger := newLogger(cfg.AppEnv, cfg.LogLevel, c.logOutput)
		c.logger = &logger
		c.app = app.New(ctx, cfg, c.fs, c.logger)
	})

	return c.app, c.logger, c.err
}

func newLogger(appEnv, level string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if appEnv == appEnvLocal || isTerminal(out) {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	fd := file.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
