package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/goid"
)

type Logger = zap.Logger

var (
	baseLogger    = zap.NewNop()
	defaultFields = struct {
		Component string
	}{}
	loggerInitOnce sync.Once
	mu             sync.RWMutex
)

// Init 初始化全局日志：控制台彩色输出 + 按天切割的文件输出
func Init(cfg config.ZapLogConfig) error {
	var err error
	loggerInitOnce.Do(func() {
		level := parseLevel(cfg.Level)

		if err = os.MkdirAll(cfg.Path, 0755); err != nil {
			return
		}

		writer, wErr := rotatelogs.New(
			filepath.Join(cfg.Path, "ispeed-%Y%m%d.log"),
			rotatelogs.WithLinkName(filepath.Join(cfg.Path, "ispeed.log")),
			rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if wErr != nil {
			err = wErr
			return
		}

		core := zapcore.NewTee(
			zapcore.NewCore(consoleEncoder(true), zapcore.AddSync(os.Stdout), level),
			zapcore.NewCore(fileEncoder(cfg.Format), zapcore.AddSync(writer), level),
		)

		mu.Lock()
		baseLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
		mu.Unlock()
	})
	return err
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// consoleEncoder 控制台编码器（彩色级别 + 蓝色时间 + 两级 caller 路径）
func consoleEncoder(colored bool) zapcore.Encoder {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.ConsoleSeparator = " "
	if colored {
		encCfg.EncodeLevel = coloredLevelEncoder
		encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(fmt.Sprintf("\033[34m%s\033[0m", t.Format("2006-01-02 15:04:05.000 -07:00")))
		}
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000 -07:00")
	}
	encCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
	}
	return zapcore.NewConsoleEncoder(encCfg)
}

// fileEncoder 文件日志不带颜色码
func fileEncoder(format string) zapcore.Encoder {
	if format == "console" {
		return consoleEncoder(false)
	}
	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.TimeKey = "timestamp"
	jsonCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000 -07:00")
	jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(jsonCfg)
}

func coloredLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var levelStr string
	switch level {
	case zapcore.DebugLevel:
		levelStr = "\033[36mDEBUG\033[0m"
	case zapcore.InfoLevel:
		levelStr = "\033[32mINFO \033[0m"
	case zapcore.WarnLevel:
		levelStr = "\033[33mWARN \033[0m"
	case zapcore.ErrorLevel:
		levelStr = "\033[31mERROR\033[0m"
	default:
		levelStr = "\033[35m" + level.CapitalString() + "\033[0m"
	}
	enc.AppendString(levelStr)
}

// SetDefaultComponent 设置默认 component 字段（acquisition/remote/...）
func SetDefaultComponent(component string) {
	mu.Lock()
	defer mu.Unlock()
	defaultFields.Component = component
}

func GetDefaultComponent() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultFields.Component
}

func log(level zapcore.Level, msg string, fields ...zapcore.Field) {
	mu.RLock()
	l := baseLogger
	component := defaultFields.Component
	mu.RUnlock()

	merged := make([]zapcore.Field, 0, len(fields)+2)
	merged = append(merged, zap.String("component", component), zap.String("goid", goid.String()))
	merged = append(merged, fields...)

	if ce := l.WithOptions(zap.AddCallerSkip(1)).Check(level, msg); ce != nil {
		ce.Write(merged...)
	}
}

func Debug(msg string, fields ...zapcore.Field) { log(zap.DebugLevel, msg, fields...) }
func Info(msg string, fields ...zapcore.Field)  { log(zap.InfoLevel, msg, fields...) }
func Warn(msg string, fields ...zapcore.Field)  { log(zap.WarnLevel, msg, fields...) }
func Error(msg string, fields ...zapcore.Field) { log(zap.ErrorLevel, msg, fields...) }
func Fatal(msg string, fields ...zapcore.Field) { log(zap.FatalLevel, msg, fields...) }

// Sync 刷盘，stdout 不支持 fsync 的错误忽略
func Sync() error {
	mu.RLock()
	l := baseLogger
	mu.RUnlock()
	if err := l.Sync(); err != nil && !strings.Contains(err.Error(), "/dev/stdout") {
		return err
	}
	return nil
}

// GetLogger 返回全局 zap.Logger（未初始化时为 Nop）
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

// ReplaceForTest 测试中注入 observer 等自定义 logger，返回恢复函数
func ReplaceForTest(l *zap.Logger) func() {
	mu.Lock()
	prev := baseLogger
	baseLogger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		baseLogger = prev
		mu.Unlock()
	}
}
