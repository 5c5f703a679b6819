package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// SystemConfig defines the output and formatting for the main system or a
// subsystem with custom settings.
type SystemConfig struct {
	Output   io.Writer // Output(s) for log entries (stderr, files, ...)
	MinLevel Level     // Minimum level to log. Below this are ignored.
	Format   int       // Controls what is shown in each log entry
}

// NewProductionSystemConfig logs info level and above to stderr.
func NewProductionSystemConfig() *SystemConfig {
	return &SystemConfig{
		Output:   os.Stderr,
		MinLevel: LevelInfo,
		Format:   IncludeDate | IncludeTime | IncludeFile | IncludeLevel,
	}
}

// NewDevelopmentSystemConfig logs verbose level and above to stderr.
func NewDevelopmentSystemConfig() *SystemConfig {
	return &SystemConfig{
		Output:   os.Stderr,
		MinLevel: LevelVerbose,
		Format:   IncludeDate | IncludeTime | IncludeFile | IncludeLevel,
	}
}

// AddFile adds a file to the existing log outputs.
func (config *SystemConfig) AddFile(filePath string) error {
	logFile, err := os.OpenFile(filepath.FromSlash(filePath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	config.Output = io.MultiWriter(config.Output, logFile)
	return nil
}

// SetFile sets a file as the only log output.
func (config *SystemConfig) SetFile(filePath string) error {
	logFile, err := os.OpenFile(filepath.FromSlash(filePath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	config.Output = logFile
	return nil
}

// AddWriter adds a writer to the existing log outputs.
func (config *SystemConfig) AddWriter(writer io.Writer) {
	config.Output = io.MultiWriter(config.Output, writer)
}

// SetWriter sets a writer as the only log output.
func (config *SystemConfig) SetWriter(writer io.Writer) {
	config.Output = writer
}

// log writes an entry based on the system config.
func (config *SystemConfig) log(system string, level Level, depth int, format string, values ...interface{}) error {
	if config.MinLevel > level {
		return nil // Level is below minimum
	}

	now := time.Now()
	entry := make([]byte, 0, 512)

	if config.Format&IncludeDate != 0 {
		year, month, day := now.Date()
		entry = append(entry, fmt.Sprintf("%04d/%02d/%02d ", year, month, day)...)
	}

	if config.Format&IncludeTime != 0 {
		hour, min, sec := now.Clock()
		entry = append(entry, fmt.Sprintf("%02d:%02d:%02d", hour, min, sec)...)
		if config.Format&IncludeMicro == 0 {
			entry = append(entry, ' ')
		}
	}

	if config.Format&IncludeMicro != 0 {
		if config.Format&IncludeTime != 0 {
			entry = append(entry, '.')
		}
		entry = append(entry, fmt.Sprintf("%06d ", now.Nanosecond()/1e3)...)
	}

	if config.Format&IncludeSystem != 0 {
		entry = append(entry, fmt.Sprintf("[%s] ", system)...)
	}

	if config.Format&IncludeFile != 0 {
		// Code of interest is 2 levels up in the stack.
		_, file, line, ok := runtime.Caller(2 + depth)
		if ok {
			file = filepath.Base(file)
		} else {
			file = "???"
			line = 0
		}
		entry = append(entry, fmt.Sprintf("%s:%d ", file, line)...)
	}

	if config.Format&IncludeLevel != 0 {
		switch level {
		case LevelDebug:
			entry = append(entry, "Debug - "...)
		case LevelVerbose:
			entry = append(entry, "Verbose - "...)
		case LevelInfo:
			entry = append(entry, "Info - "...)
		case LevelWarn:
			entry = append(entry, "Warn - "...)
		case LevelError:
			entry = append(entry, "Error - "...)
		case LevelFatal:
			entry = append(entry, "Fatal - "...)
		}
	}

	entry = append(entry, fmt.Sprintf(format, values...)...)

	if entry[len(entry)-1] != '\n' {
		entry = append(entry, '\n')
	}

	_, err := config.Output.Write(entry)

	if level == LevelFatal {
		os.Exit(1)
	}
	return err
}
