package usnjrnl

import "github.com/sirupsen/logrus"

// FieldLogger is the logging capability this package asks callers for. It
// is satisfied directly by *logrus.Logger and *logrus.Entry; passing nil
// disables logging entirely, which is what the package's own tests do.
type FieldLogger = logrus.FieldLogger

// NewLogger returns a logrus logger configured the way the command-line
// tools in this module expect: text output, level driven by the caller.
func NewLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(level)
	return log
}
