package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitCodeUsage is the exit code for invalid invocations.
const ExitCodeUsage = 2

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitCodeUsage, Message: fmt.Sprintf(format, args...)}
}

// usageArgs turns a cobra positional-argument validator's complaint into
// a usage error.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError("%v", err)
		}
		return nil
	}
}
