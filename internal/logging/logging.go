package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"companion-world/internal/config"
)

var (
	mu     sync.Mutex
	writer io.Writer = os.Stdout
	file   *sizeLimitedWriter
)

// Init configures the global zerolog logger. It may be called again to
// swap configuration; a previously opened log file is closed.
func Init(cfg config.LogConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var raw io.Writer = os.Stdout
	var lf *sizeLimitedWriter
	if cfg.File != "" {
		lf, err = newSizeLimitedWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			return err
		}
		raw = io.MultiWriter(os.Stdout, lf)
	}

	var output io.Writer = raw
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: raw}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}

	mu.Lock()
	if file != nil {
		_ = file.Close()
	}
	file = lf
	writer = raw
	mu.Unlock()

	log.Logger = logger
	return nil
}

// Writer is the destination of structured logs, shared with the HTTP request logger.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return writer
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	writer = os.Stdout
	return err
}
