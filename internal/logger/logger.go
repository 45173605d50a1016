package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

// Init инициализирует глобальный логгер
// env: "production" -> JSON, иначе читаемый консольный формат
func Init(env string) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}

	// Пропускаем один кадр, чтобы caller указывал на место вызова logger.Info, а не на этот файл
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	SetLogger(l.Sugar())
}

// SetLogger подменяет глобальный логгер (тесты ставят zap.NewNop())
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// GetLogger возвращает глобальный логгер
func GetLogger() *zap.SugaredLogger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l == nil {
		// Fallback если Init не вызван
		Init("development")
		return GetLogger()
	}
	return l
}

// Sync сбрасывает буферы, вызывается при остановке приложения
func Sync() {
	_ = GetLogger().Sync()
}

// ============================================
// Convenience функции (ключ-значение, как у slog)
// ============================================

func Debug(msg string, args ...any) {
	GetLogger().Debugw(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Infow(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warnw(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Errorw(msg, args...)
}

// Fatal логирует fatal ошибку и завершает программу
func Fatal(msg string, args ...any) {
	GetLogger().Fatalw(msg, args...)
}

// With создает новый логгер с дополнительными полями
// Пример: logger.With("user_id", id).Info("follow created")
func With(args ...any) *zap.SugaredLogger {
	return GetLogger().With(args...)
}

// WithError создает логгер с полем error
func WithError(err error) *zap.SugaredLogger {
	return GetLogger().With("error", err.Error())
}

// WorkerLog логирует операцию фонового воркера
func WorkerLog(worker, operation string, err error, args ...any) {
	fields := append([]any{"worker", worker, "operation", operation}, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Errorw("worker operation failed", fields...)
		return
	}
	GetLogger().Debugw("worker operation completed", fields...)
}
