package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config opciones para el logger.
type Config struct {
	Env        string    // development -> consola legible; production -> JSON
	Level      string    // trace, debug, info, warn, error
	BufferSize int       // entradas retenidas en memoria para /api/stdout (0 = 2000)
	Out        io.Writer // destino principal; nil = os.Stdout
}

// Logger wrapper sobre zerolog para inyección y consistencia.
// Cada evento se escribe en la salida principal y en un buffer circular acotado.
type Logger struct {
	zl   zerolog.Logger
	ring *RingBuffer
}

// New crea un logger estructurado. En development usa salida legible; en production JSON.
// No toca el logger global de zerolog: se construye una vez por proceso y se inyecta.
func New(cfg Config) *Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	var w io.Writer = out
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	ring := NewRingBuffer(size)

	zl := zerolog.New(zerolog.MultiLevelWriter(w, ring)).
		Level(parseLevel(cfg.Level)).
		With().Timestamp().Logger()

	return &Logger{zl: zl, ring: ring}
}

// Nop devuelve un logger que descarta todo (tests).
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), ring: NewRingBuffer(1)}
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Trace, Debug, Info, Warn, Error delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Worker devuelve un sublogger con el campo "worker" fijo; comparte el mismo buffer.
func (l *Logger) Worker(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("worker", name).Logger(), ring: l.ring}
}

// With abre un contexto zerolog para subloggers con campos fijos (run_id, store_id).
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Recent devuelve las entradas retenidas en el buffer, de la más antigua a la más reciente.
func (l *Logger) Recent() []string {
	return l.ring.Lines()
}

// Zerolog devuelve el logger interno por si se necesita la API directa.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
