package wsession

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
)

// zerologLogger backs the logger interface with github.com/rs/zerolog,
// the structured logging library the pack favors (see danmuck-edgectl).
type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger builds the default production logger: a console writer
// over the given io.Writer, colorized whenever it is an *os.File (a nil
// writer means os.Stderr). No terminal check is made, so a redirected
// *os.File also receives color codes.
func NewZerologLogger(w io.Writer) logger {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: true}
	if f, ok := w.(*os.File); ok {
		cw.Out = colorable.NewColorable(f)
		cw.NoColor = false
	}
	if w == nil {
		cw.Out = colorable.NewColorable(os.Stderr)
		cw.NoColor = false
	}
	return &zerologLogger{l: zerolog.New(cw).With().Timestamp().Logger()}
}

func (z *zerologLogger) WithField(key string, value any) logger {
	return &zerologLogger{l: z.l.With().Interface(key, value).Logger()}
}

func (z *zerologLogger) Debug(args ...any)                { z.l.Debug().Msg(fmt.Sprint(args...)) }
func (z *zerologLogger) Debugf(format string, args ...any) { z.l.Debug().Msgf(format, args...) }
func (z *zerologLogger) Debugln(args ...any)               { z.l.Debug().Msg(fmt.Sprintln(args...)) }
func (z *zerologLogger) Info(args ...any)                  { z.l.Info().Msg(fmt.Sprint(args...)) }
func (z *zerologLogger) Infof(format string, args ...any)  { z.l.Info().Msgf(format, args...) }
func (z *zerologLogger) Infoln(args ...any)                { z.l.Info().Msg(fmt.Sprintln(args...)) }
func (z *zerologLogger) Warn(args ...any)                  { z.l.Warn().Msg(fmt.Sprint(args...)) }
func (z *zerologLogger) Warnf(format string, args ...any)  { z.l.Warn().Msgf(format, args...) }
func (z *zerologLogger) Warnln(args ...any)                { z.l.Warn().Msg(fmt.Sprintln(args...)) }
func (z *zerologLogger) Error(args ...any)                 { z.l.Error().Msg(fmt.Sprint(args...)) }
func (z *zerologLogger) Errorf(format string, args ...any) { z.l.Error().Msgf(format, args...) }
func (z *zerologLogger) Errorln(args ...any)               { z.l.Error().Msg(fmt.Sprintln(args...)) }
