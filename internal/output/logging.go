// Package output filters response records and aggregates matching
// result lines to the configured sink.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LineFormatter renders logrus entries as
// "<timestamp> - <LEVEL> - <message>", the record format shared by the
// console log and the result sink.
type LineFormatter struct{}

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	line := fmt.Sprintf("%s - %s - %s\n",
		entry.Time.Format("2006-01-02 15:04:05"),
		strings.ToUpper(entry.Level.String()),
		entry.Message)
	return []byte(line), nil
}

// NewConsoleLogger builds the stderr diagnostics logger. Verbose mode
// enables debug-level entries (per-request repro lines and skips).
func NewConsoleLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&LineFormatter{})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
