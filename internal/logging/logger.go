package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/annel0/tome/internal/vec"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня (регистр не важен)
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("неизвестный уровень логирования %q", name)
}

// Options общие настройки логгеров
type Options struct {
	Dir             string // пусто - только консоль
	MinConsoleLevel LogLevel
	MinFileLevel    LogLevel
}

var (
	optionsMu sync.RWMutex
	options   = Options{MinConsoleLevel: INFO, MinFileLevel: DEBUG}
)

// Configure задаёт настройки для логгеров, созданных после вызова
func Configure(opts Options) {
	optionsMu.Lock()
	options = opts
	optionsMu.Unlock()
}

func currentOptions() Options {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return options
}

// Logger логгер компонента с выводом в консоль и (опционально) в файл
type Logger struct {
	mu              sync.RWMutex
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// NewLogger создаёт логгер компонента. Файл logs/<component>_<timestamp>.log
// создаётся только если задана директория.
func NewLogger(component string) (*Logger, error) {
	opts := currentOptions()

	logger := &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: opts.MinConsoleLevel,
		minFileLevel:    opts.MinFileLevel,
	}

	if opts.Dir == "" {
		return logger, nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	logger.file = file
	logger.fileLogger = log.New(file, "", log.LstdFlags)
	return logger, nil
}

// NewWriterLogger создаёт логгер, пишущий только в w. Удобно в тестах.
func NewWriterLogger(component string, w io.Writer, minLevel LogLevel) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   log.New(w, "", 0),
		minConsoleLevel: minLevel,
		minFileLevel:    ERROR + 1,
	}
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// SetLevels меняет пороги консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = console
	l.minFileLevel = file
	l.mu.Unlock()
}

// Levels текущие пороги консоли и файла
func (l *Logger) Levels() (console, file LogLevel) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minConsoleLevel, l.minFileLevel
}

// Component имя компонента
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}

	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// Глобальный логгер по умолчанию
var defaultLogger = &Logger{
	component:       "default",
	consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
	minConsoleLevel: INFO,
	minFileLevel:    DEBUG,
}

// InitDefaultLogger инициализирует логгер по умолчанию для компонента
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// CloseDefaultLogger закрывает логгер по умолчанию
func CloseDefaultLogger() {
	if defaultLogger != nil {
		defaultLogger.Close()
	}
}

func Trace(format string, args ...interface{}) { defaultLogger.log(TRACE, format, args...) }
func Debug(format string, args ...interface{}) { defaultLogger.log(DEBUG, format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.log(INFO, format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.log(WARN, format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.log(ERROR, format, args...) }

// LogTileDecision логирует решение по ячейке
func LogTileDecision(l *Logger, coord vec.Vec3, key string, rotation float64, mirrored bool) {
	l.Trace("Tile %v: %s rot:%.0f mirrored:%t", coord, key, rotation, mirrored)
}

// LogTickSummary логирует итог тика
func LogTickSummary(l *Logger, center vec.Vec3, placed, empty, unloaded int, took time.Duration) {
	l.Debug("Tick center %v: placed=%d empty=%d unloaded=%d (%s)", center, placed, empty, unloaded, took)
}
