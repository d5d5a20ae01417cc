package obs

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is used by every text log line.
const TimestampFormat = "2006-01-02 15:04:05"

// LoggingOptions controls SetupLogging.
type LoggingOptions struct {
	Debug   bool
	Verbose bool      // trace level; wins over Debug
	LogFile string    // optional rotated log file
	Stdout  io.Writer // defaults to os.Stdout
}

// Level returns the log level selected by opts.
func (opts LoggingOptions) Level() logrus.Level {
	switch {
	case opts.Verbose:
		return logrus.TraceLevel
	case opts.Debug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// SetupLogging configures the given logger. Logs always go to Stdout and,
// when LogFile is set, to a rotating file as well. The returned closer
// releases the log file and is safe to call when no file was opened.
func SetupLogging(logger *logrus.Logger, opts LoggingOptions) io.Closer {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimestampFormat,
	})

	logger.SetLevel(opts.Level())

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	if opts.LogFile == "" {
		logger.SetOutput(stdout)
		return nopCloser{}
	}

	logWriter := NewRotatingWriter(DefaultLogRotationConfig(opts.LogFile))
	logger.SetOutput(io.MultiWriter(stdout, logWriter))
	logger.Infof("Logging to file: %s (with rotation)", opts.LogFile)
	return logWriter
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
