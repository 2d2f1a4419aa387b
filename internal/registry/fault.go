package registry

import (
	"errors"
	"fmt"
)

// RPC fault codes shared by JSON-RPC 2.0 and the XML-RPC fault convention.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

var (
	ErrMethodNotFound       = errors.New("method not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrDuplicateMethod      = errors.New("method already registered")
)

// Fault is the error a dispatcher turns into an RPC fault response.
type Fault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	err error
}

func (f *Fault) Error() string { return fmt.Sprintf("fault %d: %s", f.Code, f.Message) }

func (f *Fault) Unwrap() error { return f.err }

func methodNotFound(name string) *Fault {
	return &Fault{
		Code:    CodeMethodNotFound,
		Message: fmt.Sprintf("Method not found: %q", name),
		err:     ErrMethodNotFound,
	}
}

func authenticationFailed(name string) *Fault {
	return &Fault{
		Code:    CodeInternalError,
		Message: fmt.Sprintf("Authentication failed when calling %q", name),
		err:     ErrAuthenticationFailed,
	}
}

func internalError(err error) *Fault {
	return &Fault{
		Code:    CodeInternalError,
		Message: "Internal error: " + err.Error(),
		err:     err,
	}
}

// AsFault returns err as a *Fault, wrapping anything else as an internal
// error.
func AsFault(err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return internalError(err)
}
