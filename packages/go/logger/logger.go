package logger

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/activity"
	temporalLogger "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/workflow"
)

type Fields map[string]interface{}

func (f Fields) GetLoggerFields() []interface{} {
	loggerFields := make([]interface{}, 0, len(f)*2)
	for k, v := range f {
		loggerFields = append(loggerFields, strcase.ToCamel(k), v)
	}
	return loggerFields
}

// NewFieldsFromStruct flattens the json representation of s into Fields.
func NewFieldsFromStruct(s interface{}) *Fields {
	fields := Fields{}

	if s == nil {
		return &fields
	}
	if v, ok := s.(*Fields); ok {
		return v
	}

	data, err := json.Marshal(s)
	if err != nil {
		log.Error().Err(err).Msg("unable to marshal logger fields")
		return &fields
	}
	if err = json.Unmarshal(data, &fields); err != nil {
		// not an object, keep it under a single key
		return &Fields{"params": string(data)}
	}
	return &fields
}

func GetActivityLogger(ctx context.Context, params interface{}) temporalLogger.Logger {
	return temporalLogger.With(activity.GetLogger(ctx), NewFieldsFromStruct(params).GetLoggerFields()...)
}

func GetWorkflowLogger(ctx workflow.Context, params interface{}) temporalLogger.Logger {
	return temporalLogger.With(workflow.GetLogger(ctx), NewFieldsFromStruct(params).GetLoggerFields()...)
}

// New builds the process logger: console output with RFC3339 timestamps, caller info from
// debug level down, and the App name attached to every entry.
func New(appName, level string, out io.Writer) *zerolog.Logger {
	lvl := zerolog.InfoLevel

	if level != "" {
		if l, err := zerolog.ParseLevel(level); err != nil {
			log.Fatal().Err(err).Msg("unable to parse log_level value")
		} else {
			lvl = l
		}
	}

	if out == nil {
		out = os.Stderr
	}

	zerolog.TimestampFieldName = "t"
	zerolog.MessageFieldName = "msg"
	zerolog.LevelFieldName = "lvl"

	ctx := zerolog.New(
		zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		},
	).Level(lvl).With().Timestamp()

	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}

	l := ctx.Str("App", appName).Logger()
	return &l
}

// Component returns a child logger tagged with the component name.
func Component(l *zerolog.Logger, name string) *zerolog.Logger {
	c := l.With().Str("component", name).Logger()
	return &c
}
