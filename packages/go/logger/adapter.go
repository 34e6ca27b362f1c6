package logger

import (
	"roofscore/packages/go/utils"

	"github.com/rs/zerolog"
	temporalLogger "go.temporal.io/sdk/log"
)

// ZerologAdapter lets zerolog serve as the Temporal SDK logger (client, worker and test environments).
//
//	clientOptions := client.Options{Logger: logger.NewZerologAdapter(*l)}
//
// Key/value pairs received from the SDK are attached as fields; an "error" or "err" key
// is promoted to zerolog's error field.
type ZerologAdapter struct {
	logger zerolog.Logger
}

var (
	_ temporalLogger.Logger     = (*ZerologAdapter)(nil)
	_ temporalLogger.WithLogger = (*ZerologAdapter)(nil)
)

// NewZerologAdapter creates a new instance of ZerologAdapter with the provided logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (zl *ZerologAdapter) Info(msg string, kvs ...interface{}) {
	zl.logger.Info().Fields(utils.KeyValToMap(kvs...)).Msg(msg)
}

func (zl *ZerologAdapter) Debug(msg string, kvs ...interface{}) {
	zl.logger.Debug().Fields(utils.KeyValToMap(kvs...)).Msg(msg)
}

func (zl *ZerologAdapter) Warn(msg string, kvs ...interface{}) {
	zl.logger.Warn().Fields(utils.KeyValToMap(kvs...)).Msg(msg)
}

func (zl *ZerologAdapter) Error(msg string, kvs ...interface{}) {
	f, e := popError(utils.KeyValToMap(kvs...))
	logEvt := zl.logger.Error()
	if e != nil {
		logEvt = logEvt.Err(e)
	}
	logEvt.Fields(f).Msg(msg)
}

// With returns an adapter carrying the extra key/value pairs, satisfying log.WithLogger.
func (zl *ZerologAdapter) With(kvs ...interface{}) temporalLogger.Logger {
	return &ZerologAdapter{logger: zl.logger.With().Fields(utils.KeyValToMap(kvs...)).Logger()}
}

// WithContext creates a new ZerologAdapter tagged with a component name and type
// (e.g. "activity", "workflow") plus optional key/value params.
func (zl *ZerologAdapter) WithContext(name, componentType string, params ...interface{}) *ZerologAdapter {
	lCtx := zl.logger.With().
		Str("name", name).
		Str("component", componentType)

	if params != nil {
		lCtx = lCtx.Fields(utils.KeyValToMap(params...))
	}

	return &ZerologAdapter{logger: lCtx.Logger()}
}

func popError(f map[string]interface{}) (map[string]interface{}, error) {
	var e error
	for _, key := range []string{"error", "err"} {
		if err, ok := f[key].(error); ok {
			e = err
			delete(f, key)
		}
	}
	return f, e
}
