//go:build linux

package serial

import (
	"os"

	"github.com/sirupsen/logrus"
)

// defaultLogger receives diagnostics of lines created without Config.Logger.
var defaultLogger = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{DisableTimestamp: true},
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.InfoLevel,
}

// SetDefaultLogger replaces the logger used by lines created without
// Config.Logger. Lines that already exist keep the logger they have.
func SetDefaultLogger(l *logrus.Logger) {
	defaultLogger = l
}
