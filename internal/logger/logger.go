// Package logger initializes and configures the global zerolog instance.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds configuration options for the application logger.
type Config struct {
	Level  string `long:"level" env:"LEVEL" description:"Log level (trace, debug, info, warn, error)" default:"info" json:"level"`
	Format string `long:"format" env:"FORMAT" description:"Log format (console or json)" default:"console" json:"format"`
	Output string `long:"output" env:"OUTPUT" description:"Log output (stdout, stderr or file path)" default:"stderr" json:"output"`
}

// Setup initializes the global logger based on the provided configuration options.
// The returned closer releases the log file, if one was opened.
func Setup(cfg Config) io.Closer {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	writer, closer := openOutput(cfg.Output)
	log.Logger = New(writer, cfg.Format)

	return closer
}

// New builds a logger writing to w in the given format ("json" or console).
func New(w io.Writer, format string) zerolog.Logger {
	if format == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}

	// colors only for a terminal without NO_COLOR
	if f, ok := w.(*os.File); !ok || os.Getenv("NO_COLOR") != "" || !isTerminal(f) {
		consoleWriter.NoColor = true
	}

	return zerolog.New(consoleWriter).With().Timestamp().Logger()
}

// Component returns a child of the global logger tagged with a component name.
func Component(name string) *zerolog.Logger {
	l := log.With().Str("component", name).Logger()
	return &l
}

// openOutput resolves stdout, stderr or a file path, falling back to stderr.
func openOutput(output string) (io.Writer, io.Closer) {
	switch output {
	case "stdout":
		return os.Stdout, nopCloser{}
	case "", "stderr":
		return os.Stderr, nopCloser{}
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		tempLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		tempLogger.Error().Err(err).Str("path", output).Msg("Failed to open log file, falling back to stderr")
		return os.Stderr, nopCloser{}
	}

	return file, file
}

// isTerminal checks if the provided file descriptor refers to a character device (terminal).
func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
