package qiskit_runtime_go

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an Error so callers can decide how to react to it
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindAuth means the credentials were rejected
	KindAuth
	// KindAuthExpired means the session token could not be refreshed
	KindAuthExpired
	// KindNetwork is a transient transport failure and is safe to retry
	KindNetwork
	// KindValidation is bad input, either caught locally or reported by the service
	KindValidation
	// KindState means the operation is not allowed in the current state
	KindState
	// KindTimeout means a local wait budget ran out
	KindTimeout
	KindForbidden
	KindNotFound
	KindConflict
	// KindUnhandled is any response the client does not know how to classify
	KindUnhandled
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindAuthExpired:
		return "auth expired"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindTimeout:
		return "timeout"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindUnhandled:
		return "unhandled"
	}
	return "unknown"
}

// Service identifies which remote API produced an error
type Service uint8

const (
	ServiceLocal Service = iota
	ServiceQuantum
	ServiceGlobalSearch
	ServiceIAM
)

func (s Service) String() string {
	switch s {
	case ServiceQuantum:
		return "quantum"
	case ServiceGlobalSearch:
		return "global-search"
	case ServiceIAM:
		return "iam"
	}
	return "local"
}

// Error is the single error type returned by every operation in this package
type Error struct {
	Kind       Kind
	Op         string
	Service    Service
	StatusCode int
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Service != ServiceLocal {
		fmt.Fprintf(&b, " (%s", e.Service)
		if e.StatusCode != 0 {
			fmt.Fprintf(&b, " %d", e.StatusCode)
		}
		b.WriteString(")")
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrClosed is wrapped by every error returned from a Session after Close
var ErrClosed = errors.New("session is closed")

func newErr(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

func wrapErr(op string, kind Kind, svc Service, err error) *Error {
	return &Error{Op: op, Kind: kind, Service: svc, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// kindForStatus maps an HTTP response code onto the error taxonomy.
func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindNetwork
	}
	return KindUnhandled
}

// Status codes returned by Code. Remote failures are offset by the service
// base so that a code alone says which API failed.
const (
	CodeSuccess     int32 = 0
	CodeBadArgument int32 = 3
	CodeState       int32 = 4
	CodeTimeout     int32 = 5
	CodeLocal       int32 = 6

	codeQuantumBase      int32 = 100
	codeGlobalSearchBase int32 = 200
	codeIAMBase          int32 = 300
)

// Code converts err into the stable integer status used by the CLI exit
// status and any foreign-function boundary. A nil error is CodeSuccess.
func Code(err error) int32 {
	if err == nil {
		return CodeSuccess
	}

	var e *Error
	if !errors.As(err, &e) {
		return CodeLocal
	}

	var base int32
	switch e.Service {
	case ServiceQuantum:
		base = codeQuantumBase
	case ServiceGlobalSearch:
		base = codeGlobalSearchBase
	case ServiceIAM:
		base = codeIAMBase
	default:
		switch e.Kind {
		case KindValidation:
			return CodeBadArgument
		case KindState:
			return CodeState
		case KindTimeout:
			return CodeTimeout
		}
		return CodeLocal
	}

	switch e.Kind {
	case KindValidation:
		return base + 1
	case KindAuth:
		return base + 2
	case KindForbidden:
		return base + 3
	case KindNotFound:
		return base + 4
	case KindConflict:
		return base + 5
	case KindNetwork:
		return base + 6
	case KindAuthExpired:
		return base + 7
	}
	return base
}
