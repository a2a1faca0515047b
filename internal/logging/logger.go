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

// ParseLevel разбирает уровень из конфигурации (регистр не важен)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
}

// Logger представляет систему логирования одного компонента.
// Консоль получает сообщения от minConsoleLevel, файл (если открыт) от minFileLevel.
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// Options задаёт глобальные параметры логирования
type Options struct {
	Dir          string    // директория файлов логов; пусто - только консоль
	ConsoleLevel LogLevel  // минимальный уровень для консоли
	FileLevel    LogLevel  // минимальный уровень для файла
	Output       io.Writer // вывод консоли, по умолчанию os.Stdout
}

var (
	optsMu  sync.RWMutex
	options = Options{ConsoleLevel: INFO, FileLevel: DEBUG}

	// Глобальный экземпляр логгера
	defaultLogger = &Logger{
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: INFO,
		minFileLevel:    ERROR,
	}
)

// InitLogger инициализирует систему логирования.
// Уже выданные компонентные логгеры переоткрываются с новыми параметрами.
func InitLogger(opts Options) error {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Dir != "" {
		// Создаем директорию для логов
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
		}
	}

	optsMu.Lock()
	options = opts
	optsMu.Unlock()

	logger, err := NewLogger("")
	if err != nil {
		return err
	}

	optsMu.Lock()
	old := defaultLogger
	defaultLogger = logger
	optsMu.Unlock()

	if old != nil {
		old.Close()
	}
	return GetLoggerManager().reopenAll()
}

// CloseLogger закрывает систему логирования
func CloseLogger() {
	GetLoggerManager().CloseAll()
	optsMu.RLock()
	defer optsMu.RUnlock()
	if defaultLogger != nil {
		defaultLogger.Close()
	}
}

// NewLogger создаёт логгер компонента с текущими глобальными параметрами.
// При заданной директории пишет также в файл <component>_<время>.log.
func NewLogger(component string) (*Logger, error) {
	optsMu.RLock()
	opts := options
	optsMu.RUnlock()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	logger := &Logger{
		component:       component,
		consoleLogger:   log.New(out, "", log.LstdFlags),
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}

	if opts.Dir != "" {
		name := component
		if name == "" {
			name = "voxeld"
		}
		// Создаем файл для логов с временной меткой
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", name, timestamp))

		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		logger.file = file
		logger.fileLogger = log.New(file, "", log.LstdFlags)
	}

	return logger, nil
}

// Close закрывает файл логгера
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// Component возвращает имя компонента
func (l *Logger) Component() string {
	return l.component
}

// Enabled сообщает, попадёт ли сообщение уровня level хоть в один вывод
func (l *Logger) Enabled(level LogLevel) bool {
	if level >= l.minConsoleLevel {
		return true
	}
	return l.fileLogger != nil && level >= l.minFileLevel
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// log внутренняя функция для логирования
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	var message string
	if l.component != "" {
		message = fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))
	} else {
		message = fmt.Sprintf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
	}

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

func current() *Logger {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return defaultLogger
}

// LogTrace логирует сообщение уровня TRACE
func LogTrace(format string, args ...interface{}) {
	current().log(TRACE, format, args...)
}

// LogDebug логирует сообщение уровня DEBUG
func LogDebug(format string, args ...interface{}) {
	current().log(DEBUG, format, args...)
}

// LogInfo логирует сообщение уровня INFO
func LogInfo(format string, args ...interface{}) {
	current().log(INFO, format, args...)
}

// LogWarn логирует сообщение уровня WARN
func LogWarn(format string, args ...interface{}) {
	current().log(WARN, format, args...)
}

// LogError логирует сообщение уровня ERROR
func LogError(format string, args ...interface{}) {
	current().log(ERROR, format, args...)
}
