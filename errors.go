package carbonaccounting

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNoFactorFound   = errors.New("no emissions factor found")
	ErrResolution      = errors.New("division resolution failed")
	ErrCalculation     = errors.New("emissions calculation failed")
	ErrTransport       = errors.New("ledger transport failed")
	ErrParse           = errors.New("parse failed")
	ErrInvalidArgument = errors.New("invalid argument")
)

type kind struct {
	name     string
	sentinel error
}

var kinds = []kind{
	{"NotFound", ErrNotFound},
	{"NoFactorFound", ErrNoFactorFound},
	{"ResolutionError", ErrResolution},
	{"CalculationError", ErrCalculation},
	{"TransportError", ErrTransport},
	{"ParseError", ErrParse},
	{"InvalidArgument", ErrInvalidArgument},
}

// Kind returns the taxonomy name of err, or "Internal" when err does not wrap
// one of the package sentinels.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.name
		}
	}
	return "Internal"
}

// KindError rebuilds an error received from a remote peer so that errors.Is
// keeps working on the caller side.
func KindError(name string, message string) error {
	for _, k := range kinds {
		if k.name == name {
			return &remoteErr{sentinel: k.sentinel, message: message}
		}
	}
	return errors.New(message)
}

type remoteErr struct {
	sentinel error
	message  string
}

func (e *remoteErr) Error() string { return e.message }

func (e *remoteErr) Unwrap() error { return e.sentinel }

// OperationErr annotates a failure with the engine operation that produced it.
type OperationErr struct {
	Err       error
	Operation string
}

func (operationErr *OperationErr) Error() string {
	return fmt.Sprintf("operation failed (op: %s): %s", operationErr.Operation, operationErr.Err.Error())
}

func (operationErr *OperationErr) Unwrap() error {
	return operationErr.Err
}
