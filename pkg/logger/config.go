package logger

import (
	"sync"
)

// Config routes log entries to the main output and any enabled subsystems.
type Config struct {
	Main               *SystemConfig
	IncludedSubSystems map[string]bool          // Subsystems to include in main log output
	SubSystems         map[string]*SystemConfig // Subsystems with their own output

	mutex sync.Mutex
}

// NewProductionConfig logs info level and above to stderr.
func NewProductionConfig() *Config {
	return &Config{
		Main:               NewProductionSystemConfig(),
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*SystemConfig),
	}
}

// NewDevelopmentConfig logs verbose level and above to stderr.
func NewDevelopmentConfig() *Config {
	return &Config{
		Main:               NewDevelopmentSystemConfig(),
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*SystemConfig),
	}
}

// EnableSubSystem includes a subsystem's entries in the main log output.
func (config *Config) EnableSubSystem(subSystem string) {
	config.mutex.Lock()
	defer config.mutex.Unlock()
	config.IncludedSubSystems[subSystem] = true
}

// AddSubSystem gives a subsystem its own output config.
func (config *Config) AddSubSystem(subSystem string, sysConfig *SystemConfig) {
	config.mutex.Lock()
	defer config.mutex.Unlock()
	config.SubSystems[subSystem] = sysConfig
}
