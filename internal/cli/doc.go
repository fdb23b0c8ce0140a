// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into the application's internal configuration.
//
// Usage errors (unknown commands or flags, wrong argument counts, invalid
// configuration) come back as an *ExitError with code 2. Every other
// failure is returned as is and maps to exit code 1.
package cli
