package logger

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init инициализирует глобальный JSON-логгер сервиса
// level - уровень из LOG_LEVEL (debug/info/warn/error), по умолчанию info
func Init(serviceName string, level string) {
	InitWithWriter(serviceName, level, os.Stdout)
}

// InitWithWriter инициализирует логгер с произвольным writer (для тестов)
func InitWithWriter(serviceName string, level string, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	log = zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// InitLogstash дублирует вывод в stdout и в logstash по TCP
func InitLogstash(addr string, serviceName string, level string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}

	multi := zerolog.MultiLevelWriter(os.Stdout, conn)
	InitWithWriter(serviceName, level, multi)

	return nil
}

func Info() *zerolog.Event {
	return log.Info()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}

func With() zerolog.Context {
	return log.With()
}
