// Package logging configures the process wide logrus logger.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"path"

	log "github.com/sirupsen/logrus"
)

// LogFormatter writes "[time] [level] [file:line] message" lines.
type LogFormatter struct {
}

func (m *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	var newLog string
	if entry.HasCaller() {
		newLog = fmt.Sprintf("[%s] [%s] [%s:%d] %s\n", timestamp, entry.Level, path.Base(entry.Caller.File), entry.Caller.Line, entry.Message)
	} else {
		newLog = fmt.Sprintf("[%s] [%s] %s\n", timestamp, entry.Level, entry.Message)
	}

	b.WriteString(newLog)
	return b.Bytes(), nil
}

// Setup points the standard logger at out and picks Debug or Info level.
func Setup(out io.Writer, debug bool) {
	log.SetOutput(out)
	log.SetReportCaller(true)
	log.SetFormatter(&LogFormatter{})
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
