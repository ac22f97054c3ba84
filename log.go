package tracerx

import (
	"os"

	"github.com/sirupsen/logrus"
)

// log is the package-wide structured logger. It is a drop-in replacement
// for the standard library's log.Logger for the call sites that predate
// this package's switch to structured logging (Print/Printf still work
// unchanged), while WithFields lets new call sites attach structured
// context (state id, position, instruction type) the way the rest of this
// codebase's ambient stack expects.
var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: false,
	})
	return l
}

// SetLogLevel adjusts the package logger's verbosity. Accepts logrus level
// names ("debug", "info", "warn", "error", "panic", "fatal").
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

// DiscardLog silences the package logger entirely. Tests use this to avoid
// interleaving execution traces with test output.
func DiscardLog() {
	log.SetOutput(discardWriter{})
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
