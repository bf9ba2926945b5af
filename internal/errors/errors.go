package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// ErrorType represents different categories of harness errors
type ErrorType string

const (
	// ErrorTypeCommand represents an external command that exited non-zero
	// when success was required
	ErrorTypeCommand ErrorType = "command"
	// ErrorTypeReadiness represents a service that failed to become ready
	// within the bounded polling budget
	ErrorTypeReadiness ErrorType = "readiness"
	// ErrorTypeAssertion represents an expected-vs-actual state mismatch
	ErrorTypeAssertion ErrorType = "assertion"
	// ErrorTypeInterruption represents user interruption
	ErrorTypeInterruption ErrorType = "interruption"
	// ErrorTypeUnknown represents unknown errors
	ErrorTypeUnknown ErrorType = "unknown"
)

// HarnessError represents a harness-specific error with context
type HarnessError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *HarnessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *HarnessError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *HarnessError) WithContext(key string, value interface{}) *HarnessError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new harness error
func New(errorType ErrorType, message string, cause error) *HarnessError {
	return &HarnessError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Classify analyzes an error and returns a HarnessError with appropriate
// classification. Context cancellation maps to interruption so that an
// interrupted run is reported distinctly from a genuine failure.
func Classify(err error) *HarnessError {
	if err == nil {
		return nil
	}

	var harnessErr *HarnessError
	if errors.As(err, &harnessErr) {
		return harnessErr
	}

	if errors.Is(err, context.Canceled) {
		return New(ErrorTypeInterruption, "operation was canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrorTypeReadiness, "operation timed out", err)
	}

	return New(ErrorTypeUnknown, "an unexpected error occurred", err)
}

// GetErrorType returns the error type of an error
func GetErrorType(err error) ErrorType {
	var harnessErr *HarnessError
	if errors.As(err, &harnessErr) {
		return harnessErr.Type
	}
	return ErrorTypeUnknown
}

// IsInterruption reports whether the error chain represents an interrupt
func IsInterruption(err error) bool {
	if err == nil {
		return false
	}
	return GetErrorType(err) == ErrorTypeInterruption || errors.Is(err, context.Canceled)
}

// ShutdownGuard handles graceful shutdown on interruption signals. Cleanup
// functions registered with the guard run exactly once, in reverse order,
// either when Shutdown is called explicitly or after a signal arrives and
// the interrupted run unwinds to its cleanup path.
type ShutdownGuard struct {
	cleanupFuncs []func() error
	signalChan   chan os.Signal
	interrupted  chan struct{}
	done         chan struct{}
}

// NewShutdownGuard creates a new shutdown guard
func NewShutdownGuard() *ShutdownGuard {
	return &ShutdownGuard{
		cleanupFuncs: make([]func() error, 0),
		signalChan:   make(chan os.Signal, 1),
		interrupted:  make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// RegisterCleanup registers a function to be called during shutdown
func (sg *ShutdownGuard) RegisterCleanup(fn func() error) {
	sg.cleanupFuncs = append(sg.cleanupFuncs, fn)
}

// Start starts listening for SIGINT and SIGTERM. The returned context is
// canceled when a signal arrives, so in-flight operations unwind promptly.
func (sg *ShutdownGuard) Start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	signal.Notify(sg.signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if _, ok := <-sg.signalChan; !ok {
			return
		}
		close(sg.interrupted)
		cancel()
	}()

	return ctx
}

// Stop stops listening for signals
func (sg *ShutdownGuard) Stop() {
	signal.Stop(sg.signalChan)
	close(sg.signalChan)
}

// Interrupted reports whether a shutdown signal was received
func (sg *ShutdownGuard) Interrupted() bool {
	select {
	case <-sg.interrupted:
		return true
	default:
		return false
	}
}

// Shutdown executes all registered cleanup functions in reverse order.
// Errors are reported to stderr but do not stop the remaining cleanups.
func (sg *ShutdownGuard) Shutdown() {
	select {
	case <-sg.done:
		return
	default:
		close(sg.done)
	}

	for i := len(sg.cleanupFuncs) - 1; i >= 0; i-- {
		if err := sg.cleanupFuncs[i](); err != nil {
			fmt.Fprintf(os.Stderr, "Error during cleanup: %v\n", err)
		}
	}
}
