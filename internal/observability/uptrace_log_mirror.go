package observability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
)

const (
	logInstrumentation = "starleague-draft/internal/platform/logging"
	maxLogValueDepth   = 3
)

func newLogMirror(serviceVersion string) logging.MirrorFunc {
	otelLogger := otelglobal.Logger(logInstrumentation, otellog.WithInstrumentationVersion(serviceVersion))

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if skipMirroredLog(level, msg, args) {
			return
		}

		severity := toOTelSeverity(level)
		if !otelLogger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
			return
		}

		now := time.Now().UTC()
		var record otellog.Record
		record.SetTimestamp(now)
		record.SetObservedTimestamp(now)
		record.SetSeverity(severity)
		record.SetSeverityText(strings.ToUpper(level.String()))
		record.SetEventName(msg)
		record.SetBody(otellog.StringValue(msg))
		record.AddAttributes(logAttributes(args)...)

		otelLogger.Emit(ctx, record)
	}
}

// skipMirroredLog drops debug records and successful request logs; the
// otelhttp spans already carry those.
func skipMirroredLog(level logging.Level, msg string, args []any) bool {
	if level < logging.LevelInfo {
		return true
	}
	if msg != "http request" {
		return false
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, _ := args[i].(string); key == "status" {
			status, ok := args[i+1].(int)
			return ok && status < 400
		}
	}
	return false
}

func logAttributes(args []any) []otellog.KeyValue {
	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, _ := args[i].(string)
		if strings.TrimSpace(key) == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		if i+1 >= len(args) {
			attrs = append(attrs, otellog.Empty(key))
			break
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: logValue(args[i+1], 0)})
	}
	return attrs
}

func toOTelSeverity(level logging.Level) otellog.Severity {
	switch {
	case level <= logging.LevelDebug:
		return otellog.SeverityDebug
	case level == logging.LevelInfo:
		return otellog.SeverityInfo
	case level == logging.LevelWarn:
		return otellog.SeverityWarn
	case level == logging.LevelError:
		return otellog.SeverityError
	default:
		return otellog.SeverityFatal
	}
}

// logValue converts the value kinds the draft code logs. Anything else is
// rendered with fmt.
func logValue(value any, depth int) otellog.Value {
	if value == nil {
		return otellog.Value{}
	}
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}

	switch v := value.(type) {
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int64:
		return otellog.Int64Value(v)
	case float64:
		return otellog.Float64Value(v)
	case *int:
		if v == nil {
			return otellog.Value{}
		}
		return otellog.IntValue(*v)
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case []int:
		items := make([]otellog.Value, 0, len(v))
		for _, n := range v {
			items = append(items, otellog.IntValue(n))
		}
		return otellog.SliceValue(items...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kvs := make([]otellog.KeyValue, 0, len(keys))
		for _, k := range keys {
			kvs = append(kvs, otellog.KeyValue{Key: k, Value: logValue(v[k], depth+1)})
		}
		return otellog.MapValue(kvs...)
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	default:
		return otellog.StringValue(fmt.Sprint(v))
	}
}
