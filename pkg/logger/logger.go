package logger

import (
	"context"
	"errors"
)

// Logger with message levels and per subsystem controls. The config is
// attached to the context so packages deeper in the call chain can log
// without being handed a logger.
//
// Sample setup:
//   logConfig := logger.NewDevelopmentConfig()
//   logConfig.Main.AddFile("./tmp/registryd.log")
//   logConfig.EnableSubSystem(scheduler.SubSystem)
//   ctx := logger.ContextWithLogConfig(context.Background(), logConfig)

type Level int

const (
	LevelDebug   Level = -2
	LevelVerbose Level = -1
	LevelInfo    Level = 0
	LevelWarn    Level = 1
	LevelError   Level = 2
	LevelFatal   Level = 3 // Calls exit
)

// Log entry formatting (which prefix fields to include)
const (
	IncludeDate   = 0x01 // date in the local time zone: 2018/01/01
	IncludeTime   = 0x02 // time in the local time zone: 06:54:32
	IncludeMicro  = 0x04 // microseconds .123123
	IncludeFile   = 0x08 // file name and line number
	IncludeSystem = 0x10 // subsystem name
	IncludeLevel  = 0x20 // level of log entry
)

type loggerKey int

const (
	configKey    loggerKey = 1
	subSystemKey loggerKey = 2
)

// ContextWithLogConfig returns a context with the logging config attached.
func ContextWithLogConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

// ContextWithLogSubSystem returns a context with the logging subsystem attached.
func ContextWithLogSubSystem(ctx context.Context, subSystem string) context.Context {
	return context.WithValue(ctx, subSystemKey, subSystem)
}

// ContextWithOutLogSubSystem returns a context with the logging subsystem
// cleared. Used when a context is passed back from a subsystem.
func ContextWithOutLogSubSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, subSystemKey, nil)
}

// Debug adds a debug level entry to the log.
func Debug(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelDebug, 1, format, values...)
}

// Verbose adds a verbose level entry to the log.
func Verbose(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelVerbose, 1, format, values...)
}

// Info adds an info level entry to the log.
func Info(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelInfo, 1, format, values...)
}

// Warn adds a warn level entry to the log.
func Warn(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelWarn, 1, format, values...)
}

// Error adds an error level entry to the log.
func Error(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelError, 1, format, values...)
}

// Fatal adds a fatal level entry to the log and then calls os.Exit(1).
func Fatal(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelFatal, 1, format, values...)
}

// Log an entry to the main outputs if there is no subsystem specified, or if
// the current subsystem is included in the attached config, and the level is
// at or above the configured minimum.
func Log(ctx context.Context, level Level, format string, values ...interface{}) error {
	return LogDepth(ctx, level, 1, format, values...)
}

// LogDepth is the same as Log, but depth specifies how many levels above the
// current call in the stack to pull the file name/line from.
func LogDepth(ctx context.Context, level Level, depth int, format string, values ...interface{}) error {
	configValue := ctx.Value(configKey)
	if configValue == nil {
		return nil // Config not specified. Log nothing.
	}

	config, ok := configValue.(*Config)
	if !ok {
		return errors.New("Invalid log config type")
	}

	config.mutex.Lock()
	defer config.mutex.Unlock()

	subSystem := "Main"
	subSystemValue := ctx.Value(subSystemKey)
	if subSystemValue != nil {
		subSystem, ok = subSystemValue.(string)
		if !ok {
			return errors.New("Invalid log subsystem type")
		}

		if subConfig, exists := config.SubSystems[subSystem]; exists {
			if err := subConfig.log(subSystem, level, depth, format, values...); err != nil {
				return err
			}
		}

		include, exists := config.IncludedSubSystems[subSystem]
		if !exists || !include {
			return nil // Don't log to main config
		}
	}

	return config.Main.log(subSystem, level, depth, format, values...)
}
