package restapi

import (
	"net/http"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/tencent-go/restbind/env"
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/types"
)

// Config is the connection half of a client: where requests go, how the path
// is shaped and how long a call may take. It is copied into the client at
// construction, so later mutation of a Config value has no effect.
//
// Timeout zero means the default applies; a negative Timeout disables the
// per-call deadline entirely. Header entries become defaults on every request
// and lose to per-request and per-option values.
type Config struct {
	Scheme              types.Scheme   `env:"SCHEME" default:"https" yaml:"scheme" json:"scheme"`
	Host                string         `env:"HOST" yaml:"host" json:"host"`
	PathPrefix          string         `env:"PATH_PREFIX,omitempty" yaml:"pathPrefix" json:"pathPrefix"`
	AppendTrailingSlash bool           `env:"APPEND_TRAILING_SLASH" default:"false" yaml:"appendTrailingSlash" json:"appendTrailingSlash"`
	Timeout             types.Duration `env:"TIMEOUT,omitempty" yaml:"timeout" json:"timeout"`
	Header              http.Header    `env:"-" yaml:"header" json:"header"`
}

// hostPattern mirrors the usual DNS-name shape, with an optional port.
var hostPattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+(:[0-9]+)?$`)

func (c Config) Validate() errx.Error {
	if c.Host == "" {
		return errx.Validation.WithMsg("host is required").Err()
	}
	if !hostPattern.MatchString(c.Host) {
		return errx.Validation.WithMsgf("invalid host %q", c.Host).Err()
	}
	if c.Scheme != "" {
		if err := c.Scheme.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFromEnv reads a Config from environment variables. With prefix "GIZMO"
// the variables are GIZMO_SCHEME, GIZMO_HOST, GIZMO_PATH_PREFIX and
// GIZMO_APPEND_TRAILING_SLASH; an empty prefix drops the leading segment.
func ConfigFromEnv(prefix string) (Config, errx.Error) {
	cfg, err := env.NewReaderBuilder[Config]().WithPrefix(prefix).Build().Read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromFile reads a YAML Config.
func ConfigFromFile(path string) (Config, errx.Error) {
	data, e := os.ReadFile(path)
	if e != nil {
		return Config{}, errx.Wrap(e).AppendMsgf("read config file %s", path).Err()
	}
	var cfg Config
	if e := yaml.Unmarshal(data, &cfg); e != nil {
		return Config{}, errx.Wrap(e).WithType(errx.TypeDecode).AppendMsgf("parse config file %s", path).Err()
	}
	if cfg.Scheme == "" {
		cfg.Scheme = types.SchemeHttps
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
