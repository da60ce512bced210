package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNetwork      ErrorType = "NETWORK"
	ErrTypeProtocol     ErrorType = "PROTOCOL"
	ErrTypeRequest      ErrorType = "REQUEST"
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrTypeUnauthorized ErrorType = "UNAUTHORIZED"
)

// DomainError is the error shape returned across package boundaries.
// StatusCode is only set for REQUEST, NOT_FOUND and UNAUTHORIZED errors
// that originate from an HTTP response.
type DomainError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
	Stack      []byte
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Network(message string, err error) *DomainError {
	return New(ErrTypeNetwork, message, err)
}

func Protocol(message string, err error) *DomainError {
	return New(ErrTypeProtocol, message, err)
}

// Request reports a non-2xx HTTP response.
func Request(status int, message string) *DomainError {
	e := New(ErrTypeRequest, message, nil)
	e.StatusCode = status
	return e
}

func NotFound(message string, err error) *DomainError {
	e := New(ErrTypeNotFound, message, err)
	e.StatusCode = 404
	return e
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Unauthorized(status int, message string) *DomainError {
	e := New(ErrTypeUnauthorized, message, nil)
	e.StatusCode = status
	return e
}

// Is reports whether err, or anything it wraps, is a DomainError of the given type.
func Is(err error, errType ErrorType) bool {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

// TypeOf returns the type of the outermost DomainError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.StatusCode
	}
	return 0
}

// UserMessage turns an error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch TypeOf(err) {
	case ErrTypeNetwork:
		return "No se pudo conectar con el servidor. Inténtalo de nuevo."
	case ErrTypeProtocol:
		return "El servidor devolvió una respuesta inesperada."
	case ErrTypeRequest:
		return fmt.Sprintf("La solicitud falló (código %d).", StatusCode(err))
	case ErrTypeNotFound:
		return "El trabajo solicitado no existe."
	case ErrTypeInvalidInput:
		var de *DomainError
		stderrors.As(err, &de)
		return de.Message
	case ErrTypeUnauthorized:
		return "Credenciales inválidas o sesión expirada."
	}
	return "Ocurrió un error inesperado."
}
