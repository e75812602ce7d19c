package crypto

import (
	"encoding/hex"

	"github.com/sirupsen/logrus"
)

// previewLen is how many leading bytes of a public value reach the log.
const previewLen = 8

// LoggerHelper builds one structured log entry for a crypto operation.
// Key material never goes through it; public values such as nonces and
// encoded public keys are logged as short previews only.
type LoggerHelper struct {
	entry *logrus.Entry
}

// NewLogger starts an entry tagged with the operation name.
func NewLogger(function string) *LoggerHelper {
	return &LoggerHelper{entry: logrus.WithFields(logrus.Fields{
		"function": function,
		"package":  "crypto",
	})}
}

// WithField adds one field.
func (l *LoggerHelper) WithField(key string, value interface{}) *LoggerHelper {
	l.entry = l.entry.WithField(key, value)
	return l
}

// WithFields adds several fields.
func (l *LoggerHelper) WithFields(fields logrus.Fields) *LoggerHelper {
	l.entry = l.entry.WithFields(fields)
	return l
}

// WithParams tags the entry with the crypto system the caller was built from.
func (l *LoggerHelper) WithParams(p *CryptoParams) *LoggerHelper {
	if p == nil {
		return l
	}
	return l.WithField("crypto_system", p.Name())
}

// WithError records err and the step that produced it.
func (l *LoggerHelper) WithError(err error, operation string) *LoggerHelper {
	l.entry = l.entry.WithError(err).WithField("operation", operation)
	return l
}

// WithOutcome records the step and how it ended ("ok", "failed", "rejected").
func (l *LoggerHelper) WithOutcome(operation, status string) *LoggerHelper {
	return l.WithFields(logrus.Fields{"operation": operation, "status": status})
}

// WithPreview records the size and the first bytes of a public value under
// name_size and name_preview.
func (l *LoggerHelper) WithPreview(name string, data []byte) *LoggerHelper {
	return l.WithFields(previewFields(name, data))
}

// Debug emits the entry at debug level.
func (l *LoggerHelper) Debug(message string) {
	l.entry.Debug(message)
}

// Warn emits the entry at warning level.
func (l *LoggerHelper) Warn(message string) {
	l.entry.Warn(message)
}

func previewFields(name string, data []byte) logrus.Fields {
	preview := "nil"
	switch {
	case len(data) > previewLen:
		preview = hex.EncodeToString(data[:previewLen]) + "..."
	case len(data) > 0:
		preview = hex.EncodeToString(data)
	}
	return logrus.Fields{
		name + "_preview": preview,
		name + "_size":    len(data),
	}
}
