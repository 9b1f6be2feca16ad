package util

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogError : пишет ошибку в лог и возвращает ее обернутой сообщением
func LogError(message string, err error) error {
	log.Error().Err(err).Msg(message)
	return fmt.Errorf("%s: %w", message, err)
}

// SetupLogger : настраивает глобальный zerolog логгер.
// В режиме разработки вывод человекочитаемый, иначе JSON.
func SetupLogger(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
