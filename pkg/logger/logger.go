package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog. Warn and Error entries are also handed to the
// collector, when one is attached, for aggregation and shipping.
type Logger struct {
	zl   zerolog.Logger
	sink *collectorSlot
}

// collectorSlot is shared by a logger and every child made with With, so a
// collector attached or removed later applies to all of them.
type collectorSlot struct {
	c atomic.Pointer[LogCollector]
}

type Config struct {
	Level      string `yaml:"level" default:"info" env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal panic"`
	Format     string `yaml:"format" default:"console" env:"LOG_FORMAT" validate:"oneof=json console"`
	Output     string `yaml:"output" default:"stdout" env:"LOG_OUTPUT"` // stdout, stderr, or file path
	TimeFormat string `yaml:"time_format"`
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), sink: &collectorSlot{}}
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		out = f
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	// Caller frames: user code -> Info/Warn/... -> log -> zerolog.
	zl := zerolog.New(out).With().Timestamp().CallerWithSkipFrameCount(4).Logger()
	return &Logger{zl: zl, sink: &collectorSlot{}}, nil
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(l.zl.Debug(), "", msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.log(l.zl.Info(), "", msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) { l.log(l.zl.Warn(), "warn", msg, fields) }

func (l *Logger) Error(msg string, fields ...Field) { l.log(l.zl.Error(), "error", msg, fields) }

func (l *Logger) log(event *zerolog.Event, collectAs, msg string, fields []Field) {
	for _, f := range fields {
		f.addTo(event)
	}
	event.Msg(msg)
	if collectAs != "" {
		l.collect(collectAs, msg, fields)
	}
}

func (l *Logger) collect(level, msg string, fields []Field) {
	c := l.sink.c.Load()
	if c == nil {
		return
	}

	// collect -> log -> Warn/Error -> user code
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(3); ok {
		if i := strings.LastIndex(file, "SignalDesk/"); i >= 0 {
			file = file[i+len("SignalDesk/"):]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}

	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.value()
	}
	c.AddLog(level, msg, m, caller)
}

// With returns a child logger that always carries fields. The child shares
// the parent's collector.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.value())
	}
	return &Logger{zl: ctx.Logger(), sink: l.sink}
}

// AddCollector attaches a collector, closing any previous one.
func (l *Logger) AddCollector(config *CollectionConfig) {
	if old := l.sink.c.Swap(NewLogCollector(config)); old != nil {
		old.Close()
	}
}

// RemoveCollector detaches the collector and flushes what it holds.
func (l *Logger) RemoveCollector() {
	if old := l.sink.c.Swap(nil); old != nil {
		old.Close()
	}
}

type fieldKind uint8

const (
	kindAny fieldKind = iota
	kindString
	kindInt
	kindInt64
	kindFloat64
	kindBool
	kindDuration
	kindStrings
	kindError
)

// Field is a typed key/value pair for structured logging.
type Field struct {
	Key  string
	kind fieldKind
	str  string
	num  int64
	f64  float64
	any  interface{}
}

func (f Field) addTo(e *zerolog.Event) {
	switch f.kind {
	case kindString:
		e.Str(f.Key, f.str)
	case kindInt, kindInt64:
		e.Int64(f.Key, f.num)
	case kindFloat64:
		e.Float64(f.Key, f.f64)
	case kindBool:
		e.Bool(f.Key, f.num != 0)
	case kindDuration:
		e.Dur(f.Key, time.Duration(f.num))
	case kindStrings:
		e.Strs(f.Key, f.any.([]string))
	case kindError:
		if f.any != nil {
			e.Err(f.any.(error))
		}
	default:
		e.Interface(f.Key, f.any)
	}
}

// value is what the collector records and With attaches.
func (f Field) value() interface{} {
	switch f.kind {
	case kindString:
		return f.str
	case kindInt:
		return int(f.num)
	case kindInt64:
		return f.num
	case kindFloat64:
		return f.f64
	case kindBool:
		return f.num != 0
	case kindDuration:
		return time.Duration(f.num).String()
	case kindError:
		if f.any == nil {
			return nil
		}
		return f.any.(error).Error()
	default:
		return f.any
	}
}

func String(key, value string) Field { return Field{Key: key, kind: kindString, str: value} }

func Int(key string, value int) Field { return Field{Key: key, kind: kindInt, num: int64(value)} }

func Int64(key string, value int64) Field { return Field{Key: key, kind: kindInt64, num: value} }

func Float64(key string, value float64) Field { return Field{Key: key, kind: kindFloat64, f64: value} }

func Bool(key string, value bool) Field {
	f := Field{Key: key, kind: kindBool}
	if value {
		f.num = 1
	}
	return f
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, kind: kindDuration, num: int64(value)}
}

func Strings(key string, value []string) Field { return Field{Key: key, kind: kindStrings, any: value} }

// Error logs err under zerolog's error field name. A nil err is skipped.
func Error(err error) Field {
	f := Field{Key: zerolog.ErrorFieldName, kind: kindError}
	if err != nil {
		f.any = err
	}
	return f
}

func Any(key string, value interface{}) Field { return Field{Key: key, kind: kindAny, any: value} }
