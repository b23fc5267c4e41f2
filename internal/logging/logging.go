// Package logging provides leveled terminal logging for obfsecrets commands.
//
// Everything is written to the logger's writer (stderr by default), so generated
// source written to stdout is never mixed with log output.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type Logger struct {
	Verbose bool
	Debug   bool
	Out     io.Writer
}

func (l Logger) writer() io.Writer {
	if l.Out == nil {
		return os.Stderr
	}
	return l.Out
}

// Infof is shown with --verbose or --debug.
func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.writer(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

// Debugf is shown only with --debug.
func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.writer(), color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	fmt.Fprintf(l.writer(), color.YellowString("[warn] ")+msg+"\n", args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	fmt.Fprintf(l.writer(), color.RedString("[error] ")+msg+"\n", args...)
}
