package types

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tencent-go/restbind/errx"
)

// Duration is a time.Duration that travels as a Go duration string ("1m30s")
// in JSON and YAML instead of bare nanoseconds. Integer wire values are
// accepted on decode and read as nanoseconds.
type Duration time.Duration

func ParseDuration(str string) (Duration, errx.Error) {
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, errx.Wrap(err).WithType(errx.TypeDecode).AppendMsgf("invalid duration %q", str).Err()
	}
	return Duration(d), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	str := string(data)
	if strings.HasPrefix(str, "\"") && strings.HasSuffix(str, "\"") {
		str = str[1 : len(str)-1]
	}
	if len(str) == 0 {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return err
		}
		*d = Duration(n)
		return nil
	}
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	if str == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
