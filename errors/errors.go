package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error code constants for structured errors.
const (
	CodeBindingNotFound         = "BINDING_NOT_FOUND"
	CodeCircularDependency      = "CIRCULAR_DEPENDENCY"
	CodeUnresolvableDependency  = "UNRESOLVABLE_DEPENDENCY"
	CodeModuleNotFound          = "MODULE_NOT_FOUND"
	CodeInvalidModuleDescriptor = "INVALID_MODULE_DESCRIPTOR"
	CodeProviderInitFailed      = "PROVIDER_INIT_FAILED"
	CodeRouteNotFound           = "ROUTE_NOT_FOUND"
	CodeInvalidFactory          = "INVALID_FACTORY"
	CodeValidationError         = "VALIDATION_ERROR"
	CodeConfigError             = "CONFIG_ERROR"
	CodeLifecycleError          = "LIFECYCLE_ERROR"
	CodeScopeEnded              = "SCOPE_ENDED"
	CodeContainerStarted        = "CONTAINER_STARTED"
	CodeInternalError           = "INTERNAL_ERROR"
)

// Error is a structured error with a stable code, a human-readable message
// and an optional cause. Boot-time errors carry enough payload (cycle paths,
// parameter names) to diagnose a misconfigured module graph without a debugger.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two structured errors by code alone, so sentinel comparisons
// like errors.Is(err, ErrCircularDependencySentinel) work regardless of payload.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

// NewError creates a structured error with an explicit code.
func NewError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// ErrBindingNotFound reports a lookup for an identifier with no binding.
func ErrBindingNotFound(identifier string) *Error {
	return NewError(CodeBindingNotFound, "no binding registered for '"+identifier+"'", nil)
}

// ErrCircularDependency reports a resolution path that revisits an identifier.
// The path includes the repeated identifier at both ends.
func ErrCircularDependency(path []string) *Error {
	return NewError(CodeCircularDependency, "circular dependency detected: "+strings.Join(path, " -> "), nil)
}

// ErrUnresolvableDependency reports a constructor parameter that has no
// binding and no usable default, naming the parameter and the owning identifier.
func ErrUnresolvableDependency(parameter, owner string) *Error {
	return NewError(CodeUnresolvableDependency,
		fmt.Sprintf("cannot resolve parameter '%s' required by '%s'", parameter, owner), nil)
}

// ErrModuleNotFound reports a module identifier with no registered descriptor.
func ErrModuleNotFound(module string) *Error {
	return NewError(CodeModuleNotFound, "module '"+module+"' is not registered", nil)
}

// ErrInvalidModuleDescriptor reports malformed module metadata.
func ErrInvalidModuleDescriptor(module, reason string) *Error {
	return NewError(CodeInvalidModuleDescriptor,
		fmt.Sprintf("module '%s' has an invalid descriptor: %s", module, reason), nil)
}

// ErrProviderInitFailed reports a provider whose eager resolution failed
// during module loading. Fatal at boot, the load is aborted.
func ErrProviderInitFailed(module, provider string, cause error) *Error {
	return NewError(CodeProviderInitFailed,
		fmt.Sprintf("provider '%s' in module '%s' failed to initialize", provider, module), cause)
}

// ErrRouteNotFound reports a request that matched no route entry.
func ErrRouteNotFound(method, path string) *Error {
	return NewError(CodeRouteNotFound, fmt.Sprintf("no route for %s %s", method, path), nil)
}

// ErrInvalidFactory reports a binding factory that is not a usable function.
func ErrInvalidFactory(identifier, reason string) *Error {
	return NewError(CodeInvalidFactory,
		fmt.Sprintf("invalid factory for '%s': %s", identifier, reason), nil)
}

// ErrValidationError reports a request value that failed validation.
func ErrValidationError(field string, cause error) *Error {
	return NewError(CodeValidationError, "validation failed for field '"+field+"'", cause)
}

// ErrConfigError reports a configuration load or bind failure.
func ErrConfigError(message string, cause error) *Error {
	return NewError(CodeConfigError, message, cause)
}

// ErrLifecycleError reports a failure during a lifecycle phase.
func ErrLifecycleError(phase string, cause error) *Error {
	return NewError(CodeLifecycleError, "lifecycle error during "+phase, cause)
}

// ErrScopeEnded reports a resolution attempted on an ended scope.
func ErrScopeEnded() *Error {
	return NewError(CodeScopeEnded, "scope already ended", nil)
}

// ErrContainerStarted reports a mutation attempted after container start.
func ErrContainerStarted() *Error {
	return NewError(CodeContainerStarted, "container already started", nil)
}

// Sentinel errors for use with errors.Is comparisons.
var (
	ErrBindingNotFoundSentinel         = &Error{Code: CodeBindingNotFound}
	ErrCircularDependencySentinel      = &Error{Code: CodeCircularDependency}
	ErrUnresolvableDependencySentinel  = &Error{Code: CodeUnresolvableDependency}
	ErrModuleNotFoundSentinel          = &Error{Code: CodeModuleNotFound}
	ErrInvalidModuleDescriptorSentinel = &Error{Code: CodeInvalidModuleDescriptor}
	ErrProviderInitFailedSentinel      = &Error{Code: CodeProviderInitFailed}
	ErrRouteNotFoundSentinel           = &Error{Code: CodeRouteNotFound}
	ErrValidationErrorSentinel         = &Error{Code: CodeValidationError}
	ErrConfigErrorSentinel             = &Error{Code: CodeConfigError}
	ErrScopeEndedSentinel              = &Error{Code: CodeScopeEnded}
)

// IsBindingNotFound checks if the error is a missing-binding error.
func IsBindingNotFound(err error) bool {
	return errors.Is(err, ErrBindingNotFoundSentinel)
}

// IsCircularDependency checks if the error is a circular dependency error.
func IsCircularDependency(err error) bool {
	return errors.Is(err, ErrCircularDependencySentinel)
}

// IsUnresolvableDependency checks if the error is an unresolvable-parameter error.
func IsUnresolvableDependency(err error) bool {
	return errors.Is(err, ErrUnresolvableDependencySentinel)
}

// IsModuleNotFound checks if the error is a missing-module error.
func IsModuleNotFound(err error) bool {
	return errors.Is(err, ErrModuleNotFoundSentinel)
}

// IsRouteNotFound checks if the error is a route miss.
func IsRouteNotFound(err error) bool {
	return errors.Is(err, ErrRouteNotFoundSentinel)
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationErrorSentinel)
}

// HTTPStatus maps an error to the status code of its response envelope.
// Boot-time codes never reach a response; they default to 500 for completeness.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Code {
	case CodeRouteNotFound:
		return http.StatusNotFound
	case CodeValidationError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether any error in err's chain matches target.
// Convenience wrapper around errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// Convenience wrapper around errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
