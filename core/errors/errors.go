package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures so callers can decide between degrading,
// retrying and aborting.
type Kind string

const (
	KindUnknown Kind = "Unknown"

	// Tool adapter failures. Never fatal; they reduce fact completeness.
	KindToolUnavailable    Kind = "ToolUnavailable"
	KindToolTimeout        Kind = "ToolTimeout"
	KindToolExecutionError Kind = "ToolExecutionError"

	// KindIdentityUnresolved means no fragment produced a serial or UUID.
	KindIdentityUnresolved Kind = "IdentityUnresolved"

	// Remote failures. Transient ones are retried with bounded backoff.
	KindRemoteTransient Kind = "RemoteTransient"
	KindRemoteFatal     Kind = "RemoteFatal"

	// KindPartialApply means some changeset operations did not apply.
	KindPartialApply Kind = "PartialApply"

	// KindRunInProgress means another run still holds the device.
	KindRunInProgress Kind = "RunInProgress"
)

// AgentError is an error tagged with a Kind.
type AgentError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AgentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// New creates a new error of the given kind.
func New(kind Kind, message string) *AgentError {
	return &AgentError{Kind: kind, Message: message}
}

// Newf creates a new error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *AgentError {
	return &AgentError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a kind.
func Wrap(kind Kind, message string, err error) *AgentError {
	return &AgentError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost AgentError in the chain.
func KindOf(err error) Kind {
	var agentErr *AgentError
	if stderrors.As(err, &agentErr) {
		return agentErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether the error is worth retrying.
func IsRetryable(err error) bool {
	return IsKind(err, KindRemoteTransient)
}
