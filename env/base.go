package env

import (
	"github.com/tencent-go/restbind/types"
)

// BaseConfigReaderBuilder reads the process-wide settings every service
// carries: deployment environment, log level and pod identity.
var BaseConfigReaderBuilder = NewReaderBuilder[Base]()

type Base struct {
	Env      Env      `env:"ENV" default:"prod"`
	LogLevel LogLevel `env:"LOG_LEVEL" default:"info"`
	AppName  string   `env:"APP_NAME,omitempty"`
	PodName  string   `env:"POD_NAME" default:"pod"`
}

type Env string

const (
	DEV  Env = "dev"
	PROD Env = "prod"
	TEST Env = "test"
	STAG Env = "stag"
)

func (e Env) Enum() types.Enum {
	return types.RegisterEnum(DEV, PROD, TEST, STAG)
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) Enum() types.Enum {
	return types.RegisterEnum(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
}
