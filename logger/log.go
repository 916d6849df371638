package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

type SimpleLog struct {
	mu    sync.Mutex
	out   io.Writer
	debug bool
}

var simpleLog = SimpleLog{
	out:   os.Stderr,
	debug: os.Getenv("CANARY_DEBUG") != "",
}

var (
	infoPrefix    = color.New(color.FgHiGreen).SprintFunc()
	warnPrefix    = color.New(color.FgHiYellow).SprintFunc()
	errorPrefix   = color.New(color.FgHiRed).SprintFunc()
	eventPrefix   = color.New(color.FgHiBlue).SprintFunc()
	debugPrefix   = color.New(color.Faint).SprintFunc()
	successPrefix = color.New(color.FgHiGreen, color.Bold).SprintFunc()
)

// SetOutput sets the output destination for the standard logger.
func SetOutput(w io.Writer) {
	simpleLog.mu.Lock()
	defer simpleLog.mu.Unlock()
	simpleLog.out = w
}

// Output returns the current destination of the standard logger.
func Output() io.Writer {
	simpleLog.mu.Lock()
	defer simpleLog.mu.Unlock()
	return simpleLog.out
}

// SetDebug toggles Debug lines. CANARY_DEBUG enables them at start-up.
func SetDebug(on bool) {
	simpleLog.mu.Lock()
	defer simpleLog.mu.Unlock()
	simpleLog.debug = on
}

func write(prefix string, format string, a ...interface{}) {
	simpleLog.mu.Lock()
	defer simpleLog.mu.Unlock()

	out := fmt.Sprintf(format, a...)
	fmt.Fprintln(simpleLog.out, prefix, out)
}

func Info(format string, a ...interface{}) {
	write(infoPrefix("info:"), format, a...)
}

func Warn(format string, a ...interface{}) {
	write(warnPrefix("warn:"), format, a...)
}

func Error(format string, a ...interface{}) {
	write(errorPrefix("error:"), format, a...)
}

func FatalError(format string, a ...interface{}) {
	write(errorPrefix("error:"), format, a...)
	os.Exit(1)
}

func Event(format string, a ...interface{}) {
	write(eventPrefix("event:"), format, a...)
}

func Success(format string, a ...interface{}) {
	write(successPrefix("done:"), format, a...)
}

func Debug(format string, a ...interface{}) {
	simpleLog.mu.Lock()
	on := simpleLog.debug
	simpleLog.mu.Unlock()

	if on {
		write(debugPrefix("debug:"), format, a...)
	}
}
