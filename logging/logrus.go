// Package logging provides a structured Logger for a corosched Scheduler,
// backed by logrus. A Scheduler uses core.NoOpLogger unless one is
// configured.
package logging

import (
	"github.com/sirupsen/logrus"
	"github.com/taskloop/corosched/core"
)

// Logrus adapts a logrus.FieldLogger to core.Logger.
type Logrus struct {
	entry logrus.FieldLogger
}

var _ core.Logger = Logrus{}

// NewLogrus wraps l. A nil l wraps the package-level logrus.StandardLogger.
func NewLogrus(l logrus.FieldLogger) Logrus {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logrus{entry: l}
}

func (x Logrus) withFields(fields []core.Field) logrus.FieldLogger {
	if len(fields) == 0 {
		return x.entry
	}
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return x.entry.WithFields(data)
}

func (x Logrus) Debug(msg string, fields ...core.Field) { x.withFields(fields).Debug(msg) }
func (x Logrus) Info(msg string, fields ...core.Field)  { x.withFields(fields).Info(msg) }
func (x Logrus) Warn(msg string, fields ...core.Field)  { x.withFields(fields).Warn(msg) }
func (x Logrus) Error(msg string, fields ...core.Field) { x.withFields(fields).Error(msg) }
