package logger

import (
	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger using rs/zerolog. Warning and error lines
// also carry the first error argument in the "error" field, so weekday
// failures can be filtered on without parsing the message.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps z. All lines carry the given component field.
func NewZerologLogger(z zerolog.Logger, component string) Logger {
	return &ZerologLogger{log: z.With().Str("component", component).Logger()}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	withErr(l.log.Warn(), args).Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	withErr(l.log.Error(), args).Msgf(format, args...)
}

func withErr(e *zerolog.Event, args []any) *zerolog.Event {
	for _, a := range args {
		if err, ok := a.(error); ok && err != nil {
			return e.AnErr("error", err)
		}
	}
	return e
}
