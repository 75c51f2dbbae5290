// Package logging holds the process-wide log entry. Components derive
// their loggers from Entry so a level change applies to all of them.
package logging

import "github.com/sirupsen/logrus"

var logger = logrus.NewEntry(logrus.New())

type Fields = logrus.Fields

// SetLevel adjusts the level of the shared logger and every entry
// derived from it.
func SetLevel(l logrus.Level) {
	logger.Logger.SetLevel(l)
}

func Entry() *logrus.Entry {
	return logger
}

func WithError(e error) *logrus.Entry {
	return logger.WithError(e)
}
