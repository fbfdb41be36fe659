package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger used by every package.
func Setup(debug bool) {
	SetupWithWriter(os.Stdout, debug)
}

func SetupWithWriter(out io.Writer, debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.DateTime,
		NoColor:    true,
		PartsOrder: []string{
			zerolog.LevelFieldName,
			zerolog.TimestampFieldName,
			zerolog.MessageFieldName,
		},
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// GooseLogger adapts zerolog to goose's Logger interface.
type GooseLogger struct{}

func (GooseLogger) Fatalf(format string, v ...any) {
	log.Fatal().Msgf(format, v...)
}

func (GooseLogger) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}
