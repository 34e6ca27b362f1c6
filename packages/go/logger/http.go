package logger

import (
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// LevelHTTPLogger routes go-retryablehttp request logs into zerolog.
type LevelHTTPLogger struct {
	Logger *zerolog.Logger
}

var _ retryablehttp.LeveledLogger = (*LevelHTTPLogger)(nil)

// NewLevelHTTPLogger wraps l for use as retryablehttp.Client.Logger.
func NewLevelHTTPLogger(l *zerolog.Logger) *LevelHTTPLogger {
	return &LevelHTTPLogger{Logger: l}
}

// requestEvent adds the request fields retryablehttp passes as "method" and "url" (a *url.URL),
// plus any remaining pairs.
func requestEvent(ev *zerolog.Event, keysAndValues ...interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case *url.URL:
			ev = ev.Str("scheme", v.Scheme).Str("host", v.Host).Str("path", v.Path)
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

func (l *LevelHTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	requestEvent(l.Logger.Error(), keysAndValues...).Msg(msg)
}

func (l *LevelHTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	requestEvent(l.Logger.Info(), keysAndValues...).Msg(msg)
}

func (l *LevelHTTPLogger) Debug(msg string, keysAndValues ...interface{}) {
	requestEvent(l.Logger.Debug(), keysAndValues...).Msg(msg)
}

// Warn is logged at debug level; retryablehttp warns on every retried attempt.
func (l *LevelHTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	requestEvent(l.Logger.Debug(), keysAndValues...).Msg(msg)
}
