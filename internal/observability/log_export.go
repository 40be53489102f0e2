package observability

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const (
	logExportInstrumentation = "plus-predictor/internal/platform/logging"
	requestLogMessage        = "http request"
	healthPath               = "/healthz"
	maxLogValueDepth         = 3
)

// otelLogCore is a zap core that re-emits entries as OpenTelemetry log
// records through the global logger provider configured by Uptrace.
type otelLogCore struct {
	zapcore.LevelEnabler
	logger otellog.Logger
	fields []zapcore.Field
}

func newOTelLogCore(serviceVersion string, level zapcore.LevelEnabler) zapcore.Core {
	return &otelLogCore{
		LevelEnabler: level,
		logger: otelglobal.Logger(
			logExportInstrumentation,
			otellog.WithInstrumentationVersion(serviceVersion),
		),
	}
}

func (c *otelLogCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *otelLogCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *otelLogCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if shouldSkipLogExport(ent.Message, enc.Fields) {
		return nil
	}

	ctx := context.Background()
	severity := toOTelSeverity(ent.Level)
	if !c.logger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: ent.Message}) {
		return nil
	}

	record := otellog.Record{}
	record.SetTimestamp(ent.Time)
	record.SetObservedTimestamp(time.Now().UTC())
	record.SetSeverity(severity)
	record.SetSeverityText(strings.ToUpper(ent.Level.String()))
	record.SetEventName(ent.Message)
	record.SetBody(otellog.StringValue(ent.Message))
	if attrs := buildOTelLogAttributes(enc.Fields); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}

	c.logger.Emit(ctx, record)
	return nil
}

func (c *otelLogCore) Sync() error {
	return nil
}

// shouldSkipLogExport drops health-check access logs, which would dominate volume.
func shouldSkipLogExport(msg string, fields map[string]any) bool {
	if msg != requestLogMessage {
		return false
	}
	path, ok := fields["path"].(string)
	return ok && path == healthPath
}

func buildOTelLogAttributes(fields map[string]any) []otellog.KeyValue {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]otellog.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, otellog.KeyValue{Key: k, Value: toOTelLogValue(fields[k], 0)})
	}
	return attrs
}

func toOTelSeverity(level zapcore.Level) otellog.Severity {
	switch {
	case level <= zapcore.DebugLevel:
		return otellog.SeverityDebug
	case level == zapcore.InfoLevel:
		return otellog.SeverityInfo
	case level == zapcore.WarnLevel:
		return otellog.SeverityWarn
	case level >= zapcore.DPanicLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityError
	}
}

func toOTelLogValue(value any, depth int) otellog.Value {
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}
	if value == nil {
		return otellog.Value{}
	}

	switch v := value.(type) {
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int32:
		return otellog.Int64Value(int64(v))
	case int64:
		return otellog.Int64Value(v)
	case uint32:
		return otellog.Int64Value(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return otellog.StringValue(fmt.Sprint(v))
		}
		return otellog.Int64Value(int64(v))
	case float64:
		return otellog.Float64Value(v)
	case []byte:
		return otellog.BytesValue(append([]byte(nil), v...))
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return otellog.Value{}
		}
		return toOTelLogValue(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		items := make([]otellog.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, toOTelLogValue(rv.Index(i).Interface(), depth+1))
		}
		return otellog.SliceValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return otellog.StringValue(fmt.Sprint(value))
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		kvs := make([]otellog.KeyValue, 0, len(keys))
		for _, key := range keys {
			kvs = append(kvs, otellog.KeyValue{
				Key:   key.String(),
				Value: toOTelLogValue(rv.MapIndex(key).Interface(), depth+1),
			})
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(value))
	}
}
