package logger

import "github.com/robfig/cron/v3"

type cronLogger struct{}

// CronLogger adapts the package logger to cron.Logger.
func CronLogger() cron.Logger {
	return cronLogger{}
}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	get().Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	get().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
