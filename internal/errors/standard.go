// Package errors provides standardized error messaging for emudbg
package errors

import (
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryTransport     ErrorCategory = "TRANSPORT"
	CategoryProtocol      ErrorCategory = "PROTOCOL"
	CategoryUnsupported   ErrorCategory = "UNSUPPORTED"
	CategoryValidation    ErrorCategory = "VALIDATION"
	CategoryConfig        ErrorCategory = "CONFIG"
	CategoryCompatibility ErrorCategory = "COMPATIBILITY"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
	Cause    error
}

// Error implements the error interface
func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v (caller: %s)", e.Category, e.Code, e.Message, e.Cause, e.Caller)
	}
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// Unwrap returns the underlying cause, if any.
func (e *StandardError) Unwrap() error { return e.Cause }

// Is reports a match against another StandardError with the same category and code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return newStandardError(category, code, message, context, nil)
}

func newStandardError(category ErrorCategory, code, message string, context map[string]interface{}, cause error) *StandardError {
	// skip newStandardError and the exported constructor
	pc, _, _, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
		Cause:    cause,
	}
}

// Sentinels for errors.Is comparisons. Only Category and Code are compared.
var (
	ErrClientDisconnected = &StandardError{Category: CategoryTransport, Code: "CLIENT_DISCONNECTED"}
	ErrNoClient           = &StandardError{Category: CategoryTransport, Code: "NO_CLIENT"}
	ErrMalformedPacket    = &StandardError{Category: CategoryProtocol, Code: "MALFORMED_PACKET"}
	ErrChecksumMismatch   = &StandardError{Category: CategoryProtocol, Code: "CHECKSUM_MISMATCH"}
	ErrInvalidField       = &StandardError{Category: CategoryValidation, Code: "INVALID_FIELD"}
	ErrInvalidConfig      = &StandardError{Category: CategoryConfig, Code: "INVALID_CONFIG"}
	ErrConfigFile         = &StandardError{Category: CategoryConfig, Code: "CONFIG_FILE"}
	ErrOutOfRange         = &StandardError{Category: CategoryValidation, Code: "OUT_OF_RANGE"}
	ErrUnsupported        = &StandardError{Category: CategoryUnsupported, Code: "UNSUPPORTED_FEATURE"}
	ErrIncompatibleAPI    = &StandardError{Category: CategoryCompatibility, Code: "INCOMPATIBLE_API"}
)

// Common error constructors
func Transport(op string, cause error) *StandardError {
	return newStandardError(CategoryTransport, "IO_FAILURE",
		fmt.Sprintf("%s failed", op),
		map[string]interface{}{"operation": op}, cause)
}

func ClientDisconnected(op string) *StandardError {
	return newStandardError(CategoryTransport, ErrClientDisconnected.Code,
		fmt.Sprintf("client closed the connection during %s", op),
		map[string]interface{}{"operation": op}, nil)
}

func NoClient(op string) *StandardError {
	return newStandardError(CategoryTransport, ErrNoClient.Code,
		fmt.Sprintf("%s requires a connected client", op),
		map[string]interface{}{"operation": op}, nil)
}

func MalformedPacket(reason string, size int) *StandardError {
	return newStandardError(CategoryProtocol, ErrMalformedPacket.Code,
		fmt.Sprintf("malformed packet: %s", reason),
		map[string]interface{}{"reason": reason, "size": size}, nil)
}

func ChecksumMismatch(want, got uint8) *StandardError {
	return newStandardError(CategoryProtocol, ErrChecksumMismatch.Code,
		fmt.Sprintf("checksum mismatch: computed %02x, packet carries %02x", want, got),
		map[string]interface{}{"computed": want, "received": got}, nil)
}

func InvalidField(field, value string, cause error) *StandardError {
	return newStandardError(CategoryValidation, ErrInvalidField.Code,
		fmt.Sprintf("invalid %s %q", field, value),
		map[string]interface{}{"field": field, "value": value}, cause)
}

func InvalidConfig(key string, value interface{}, reason string) *StandardError {
	return newStandardError(CategoryConfig, ErrInvalidConfig.Code,
		fmt.Sprintf("invalid config %s=%v: %s", key, value, reason),
		map[string]interface{}{"key": key, "value": value}, nil)
}

func IncompatibleAPI(identifier uint32, version string, reason string) *StandardError {
	return newStandardError(CategoryCompatibility, ErrIncompatibleAPI.Code,
		fmt.Sprintf("emulator API %08x v%s rejected: %s", identifier, version, reason),
		map[string]interface{}{"identifier": identifier, "version": version}, nil)
}

func ConfigFile(path, op string, cause error) *StandardError {
	return newStandardError(CategoryConfig, ErrConfigFile.Code,
		fmt.Sprintf("%s %s failed", op, path),
		map[string]interface{}{"path": path, "operation": op}, cause)
}

// OutOfRange reports size bytes at addr not fitting in limit bytes.
func OutOfRange(what string, addr uint32, size, limit int) *StandardError {
	return newStandardError(CategoryValidation, ErrOutOfRange.Code,
		fmt.Sprintf("%s of %d bytes at %#x overflows %d bytes", what, size, addr, limit),
		map[string]interface{}{"address": addr, "size": size, "limit": limit}, nil)
}

func Unsupported(feature, value string) *StandardError {
	return newStandardError(CategoryUnsupported, ErrUnsupported.Code,
		fmt.Sprintf("unsupported %s %q", feature, value),
		map[string]interface{}{"feature": feature, "value": value}, nil)
}
