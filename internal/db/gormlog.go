package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"susu-app-go/pkg/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// queryLogger sends gorm's query log through the application logger: failed
// queries at error level, slow ones at warn, the rest at debug when enabled.
type queryLogger struct {
	log   logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newQueryLogger(log logger.Logger, slow time.Duration) *queryLogger {
	if slow <= 0 {
		slow = defaultSlowQuery
	}
	return &queryLogger{log: log.With("component", "gorm"), level: gormlogger.Warn, slow: slow}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Info {
		q.log.Info("db: " + fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Warn {
		q.log.Warn("db: " + fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Error {
		q.log.Error("db: " + fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= gormlogger.Error:
		sql, rows := fc()
		q.log.InternalError("db: query failed", err, "sql", sql, "rows", rows, "elapsed", elapsed.String())
	case elapsed > q.slow && q.level >= gormlogger.Warn:
		sql, rows := fc()
		q.log.Warn("db: slow query", "sql", sql, "rows", rows, "elapsed", elapsed.String())
	case q.level >= gormlogger.Info:
		sql, rows := fc()
		q.log.Debug("db: query", "sql", sql, "rows", rows, "elapsed", elapsed.String())
	}
}
