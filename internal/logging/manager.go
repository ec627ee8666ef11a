package logging

import (
	"errors"
	"fmt"
	"sync"
)

// Levels пороги логгера компонента
type Levels struct {
	Console LogLevel
	File    LogLevel
}

// LoggerManager хранит логгеры компонентов и их переопределённые уровни
type LoggerManager struct {
	mu        sync.Mutex
	loggers   map[string]*Logger
	overrides map[string]Levels
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager()
	})
	return globalManager
}

// NewLoggerManager создаёт пустой менеджер
func NewLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]Levels),
	}
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	if lv, ok := lm.overrides[component]; ok {
		logger.SetLevels(lv.Console, lv.File)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или консольный fallback при ошибке
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}
	return &Logger{
		consoleLogger:   defaultLogger.consoleLogger,
		component:       component,
		minConsoleLevel: INFO,
		minFileLevel:    ERROR + 1,
	}
}

// SetLogLevel задаёт уровни компонента. Действует и на уже созданный логгер,
// и на тот, что будет создан позже.
func (lm *LoggerManager) SetLogLevel(component string, console, file LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.overrides[component] = Levels{Console: console, File: file}
	if logger, ok := lm.loggers[component]; ok {
		logger.SetLevels(console, file)
	}
}

// CloseAll закрывает файлы всех логгеров компонентов
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger {
	return GetComponentLogger("world")
}

func GetCatalogLogger() *Logger {
	return GetComponentLogger("catalog")
}

func GetAPILogger() *Logger {
	return GetComponentLogger("api")
}
