package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

// Exit codes are stable so scripts can tell failures apart.
const (
	ExitOK = iota
	ExitInvalidArguments
	ExitInputUnreadable
	ExitSpecMalformed
	ExitOutputUnwritable
	ExitEmptySecretSet
	ExitSecretsTooLarge
	ExitInvalidEncoding
)

// ErrInvalidArguments indicates a command was invoked incorrectly.
var ErrInvalidArguments = errors.New("invalid arguments")

var exitCodes = []struct {
	err  error
	code int
}{
	{ErrInvalidArguments, ExitInvalidArguments},
	{obfs.ErrUnknownHash, ExitInvalidArguments},
	{obfs.ErrInputUnreadable, ExitInputUnreadable},
	{obfs.ErrSpecMalformed, ExitSpecMalformed},
	{obfs.ErrInvalidBundle, ExitSpecMalformed},
	{obfs.ErrOutputUnwritable, ExitOutputUnwritable},
	{obfs.ErrEmptySecretSet, ExitEmptySecretSet},
	{obfs.ErrSecretsTooLarge, ExitSecretsTooLarge},
	{obfs.ErrInvalidSecretEncoding, ExitInvalidEncoding},
	{obfs.ErrUnknownSecret, ExitInvalidArguments},
	{obfs.ErrEmptyPassphrase, ExitInvalidArguments},
}

// ExitCode maps err to the process exit code reported for it.
// Errors that don't match a known condition are reported as invalid arguments, since that's the only other way a run can fail.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, ec := range exitCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ExitInvalidArguments
}

// Fatal will Echo the error and os.Exit with the code from ExitCode.
func Fatal(err error) {
	Echo(os.Stderr, "Error: %v", err)
	os.Exit(ExitCode(err))
}

// Echo will emit the given message to w without any logging formatting.
func Echo(w io.Writer, msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = fmt.Fprintf(w, msg, args...)
}
