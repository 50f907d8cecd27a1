package logger

import (
	"log"
	"strings"
)

type warnWriter struct {
	log Logger
}

func (w warnWriter) Write(p []byte) (int, error) {
	w.log.Warn(strings.TrimSpace(string(p)))
	return len(p), nil
}

// StdLog adapts l for libraries that want a *log.Logger, such as
// http.Server.ErrorLog. Every line is logged at warn level.
func StdLog(l Logger) *log.Logger {
	return log.New(warnWriter{log: l}, "", 0)
}
