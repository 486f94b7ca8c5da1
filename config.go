package smu

import (
	"os"
	"strconv"
)

// Config хранит модель конфигурации клиента.
type Config struct {
	Resource  string
	IDQuery   bool
	Reset     bool
	TimeoutMs uint32
	Options   string
	LogLevel  string
}

// Load загружает конфигурацию из переменных окружения.
func Load() *Config {
	resource := os.Getenv("SMU_RESOURCE")
	if resource == "" {
		resource = "TCPIP0::localhost::inst0::INSTR"
	}

	idQuery := true
	if v, err := strconv.ParseBool(os.Getenv("SMU_ID_QUERY")); err == nil {
		idQuery = v
	}

	reset := true
	if v, err := strconv.ParseBool(os.Getenv("SMU_RESET")); err == nil {
		reset = v
	}

	timeoutStr := os.Getenv("SMU_TIMEOUT_MS")
	timeout, err := strconv.ParseUint(timeoutStr, 10, 32)
	if err != nil || timeout == 0 {
		timeout = 100000
	}

	options := os.Getenv("SMU_OPTIONS")
	if options == "" {
		options = "QueryInstrStatus=True, Simulate=False, Trace=False"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Resource:  resource,
		IDQuery:   idQuery,
		Reset:     reset,
		TimeoutMs: uint32(timeout),
		Options:   options,
		LogLevel:  logLevel,
	}
}
