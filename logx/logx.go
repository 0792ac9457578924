// Package logx wires the process logger: logrus behind a JSON line formatter
// plus a hook that unpacks error values into structured fields.
package logx

import (
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/tencent-go/restbind/env"
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/types"
)

// Init configures the global logger from the base environment and seeds the
// request ID generator with the pod identity. Call it once at process start;
// a misconfigured base environment is fatal.
func Init() {
	base := env.BaseConfigReaderBuilder.Build().MustRead()
	Setup(convertLevel(base.LogLevel))
	types.SetIDNodeByString(base.PodName)
}

// Setup installs the JSON formatter and the error hook on the global logger.
func Setup(level logrus.Level) {
	logrus.AddHook(&errorHook{})
	logrus.SetLevel(level)
	logrus.SetFormatter(&jsonFormatter{})
	logrus.SetReportCaller(true)
}

func convertLevel(l env.LogLevel) logrus.Level {
	switch l {
	case env.LogLevelDebug:
		return logrus.DebugLevel
	case env.LogLevelInfo:
		return logrus.InfoLevel
	case env.LogLevelWarn:
		return logrus.WarnLevel
	case env.LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

var json = sync.OnceValue(func() jsoniter.API {
	return jsoniter.Config{
		EscapeHTML:                    true,
		SortMapKeys:                   true,
		ValidateJsonRawMessage:        true,
		ObjectFieldMustBeSimpleString: true,
	}.Froze()
})

type jsonFormatter struct {
}

func (j *jsonFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := map[string]interface{}{}
	for s := range entry.Data {
		data[s] = entry.Data[s]
	}
	if entry.Caller != nil {
		fs := strings.Split(entry.Caller.File, "/")
		if len(fs) > 3 {
			fs = fs[len(fs)-3:]
		}
		data["file"] = fmt.Sprintf("%s:%d", strings.Join(fs, "/"), entry.Caller.Line)
	}
	data["level"] = strings.ToUpper(entry.Level.String())
	data["message"] = entry.Message
	str, err := json().Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(str, '\n'), nil
}

// errorHook flattens the value logged under WithError: plain errors into
// their message, taxonomy errors into type, code and a truncated stack.
// Levels below warn pass through untouched.
type errorHook struct{}

func (h *errorHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *errorHook) Fire(entry *logrus.Entry) error {
	if entry.Level > logrus.WarnLevel {
		return nil
	}
	err, withErr := entry.Data[logrus.ErrorKey]
	if !withErr {
		return nil
	}
	if e, ok := err.(error); ok {
		entry.Data["error"] = e.Error()
	}
	if e, ok := err.(errx.Error); ok {
		entry.Data["errorType"] = e.Type()
		entry.Data["errorCode"] = e.Code()
		stack := e.Stack()
		if len(stack) > 8 {
			stack = stack[:8]
		}
		entry.Data["stack"] = stack
		return nil
	}
	if e, ok := err.(xerrors.Formatter); ok {
		entry.Data["stack"] = fmt.Sprintf("%+v", e)
	}
	return nil
}
