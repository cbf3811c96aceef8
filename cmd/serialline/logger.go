//go:build linux

package main

import (
	"os"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

func newLogger(level logrus.Level) *logrus.Logger {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	customFormatter := new(prefixed.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	customFormatter.SpacePadding = 50
	logger.SetFormatter(customFormatter)
	return logger
}
