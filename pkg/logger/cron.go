package logger

import "fmt"

// CronAdapter satisfies cron.Logger so scheduler internals land in the same sink.
type CronAdapter struct {
	L *Logger
}

func (a CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.L.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (a CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := append(kvFields(keysAndValues), Error(err))
	a.L.Error("cron: "+msg, fields...)
}

func kvFields(kv []interface{}) []Field {
	fields := make([]Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
