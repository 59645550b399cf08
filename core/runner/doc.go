// Package runner executes external diagnostic tools for the adapters.
//
// Each invocation runs one executable with a fixed argument set under its own
// timeout and captures stdout and stderr. Nothing is written to disk or the
// network. Failures come back as classified *errors.AgentError values:
//
//   - ToolUnavailable: the executable is not installed on this host.
//   - ToolTimeout: the timeout expired and the process was killed.
//   - ToolExecutionError: non-zero exit; the message carries stderr.
//
// Tests substitute the Runner interface with canned outputs.
package runner
