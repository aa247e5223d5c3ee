// Package kverrors implements the typed error framework described in
// spec.md §7: status codes, an immutable cause chain, and metrics tags
// for observability pipelines.
package kverrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// StatusCode is a coarse classification attached to every Error, meant
// to map onto whatever transport-level status the wire layer uses.
type StatusCode int

const (
	StatusUnknown StatusCode = iota
	StatusNotFound
	StatusWrongType
	StatusInvalidArgs
	StatusInvalidUtf8
	StatusInvalidKey
	StatusParseError
	StatusUnsupportedVersion
	StatusIncompatibleVersion
	StatusIO
	StatusTimeout
	StatusConnectionClosed
	StatusConnectionFailed
	StatusUnexpectedEOF
	StatusSizeLimit
	StatusRateLimited
	StatusAuth
	StatusCluster
	StatusPubSub
	StatusInternal
	StatusUnexpected
)

func (s StatusCode) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusWrongType:
		return "wrong_type"
	case StatusInvalidArgs:
		return "invalid_args"
	case StatusInvalidUtf8:
		return "invalid_utf8"
	case StatusInvalidKey:
		return "invalid_key"
	case StatusParseError:
		return "parse_error"
	case StatusUnsupportedVersion:
		return "unsupported_version"
	case StatusIncompatibleVersion:
		return "incompatible_version"
	case StatusIO:
		return "io"
	case StatusTimeout:
		return "timeout"
	case StatusConnectionClosed:
		return "connection_closed"
	case StatusConnectionFailed:
		return "connection_failed"
	case StatusUnexpectedEOF:
		return "unexpected_eof"
	case StatusSizeLimit:
		return "size_limit"
	case StatusRateLimited:
		return "rate_limited"
	case StatusAuth:
		return "auth"
	case StatusCluster:
		return "cluster"
	case StatusPubSub:
		return "pub_sub"
	case StatusInternal:
		return "internal"
	case StatusUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Kind is the specific error variant within a StatusCode's family.
type Kind string

const (
	KindNotFound             Kind = "NotFound"
	KindWrongType            Kind = "WrongType"
	KindInvalidArgs          Kind = "InvalidArgs"
	KindInvalidUtf8          Kind = "InvalidUtf8"
	KindInvalidKey           Kind = "InvalidKey"
	KindParseError           Kind = "ParseError"
	KindUnsupportedVersion   Kind = "UnsupportedVersion"
	KindIncompatibleVersion  Kind = "IncompatibleVersion"
	KindIO                   Kind = "Io"
	KindTimeout              Kind = "Timeout"
	KindConnectionClosed     Kind = "ConnectionClosed"
	KindConnectionFailed     Kind = "ConnectionFailed"
	KindUnexpectedEOF        Kind = "UnexpectedEof"
	KindSizeLimit            Kind = "SizeLimit"
	KindRateLimited          Kind = "RateLimited"
	KindAuthInvalidCreds     Kind = "AuthInvalidCredentials"
	KindAuthUserNotFound     Kind = "AuthUserNotFound"
	KindAuthSessionExpired   Kind = "AuthSessionExpired"
	KindAuthTooManyAttempts  Kind = "AuthTooManyAttempts"
	KindAuthRevokedToken     Kind = "AuthRevokedToken"
	KindClusterMovedSlot     Kind = "ClusterMovedSlot"
	KindClusterCrossSlot     Kind = "ClusterCrossSlot"
	KindClusterDown          Kind = "ClusterDown"
	KindClusterMigrating     Kind = "ClusterMigrationActive"
	KindClusterInvalidSlot   Kind = "ClusterInvalidSlot"
	KindClusterRebalanceFail Kind = "ClusterRebalanceFailed"
	KindPubSubClosed         Kind = "PubSubClosed"
	KindPubSubTimeout        Kind = "PubSubTimeout"
	KindPubSubLagged         Kind = "PubSubLagged"
	KindPubSubInvalidPattern Kind = "PubSubInvalidPattern"
	KindPubSubMessageTooBig  Kind = "PubSubMessageTooLarge"
	KindPubSubNoSubscribers  Kind = "PubSubNoSubscribers"
	KindPubSubDeliveryFailed Kind = "PubSubDeliveryFailed"
	KindInternal             Kind = "Internal"
	KindUnexpected           Kind = "Unexpected"
)

// Error is emberkv's error type. It wraps an immutable root cause (a
// pkg/errors chain, so %+v still prints a stack trace) plus a list of
// contexts added on the way up the call stack. Adding context never
// mutates the root.
type Error struct {
	status   StatusCode
	kind     Kind
	cause    error
	contexts []string
	fields   map[string]string
}

// New creates a root Error of the given status/kind with a message.
func New(status StatusCode, kind Kind, msg string) *Error {
	return &Error{status: status, kind: kind, cause: errors.New(msg)}
}

// Wrap attaches status/kind to an existing error, preserving it as the
// cause. If err is already *Error, its status/kind/fields carry over
// and the new context is appended rather than replacing anything.
func Wrap(err error, status StatusCode, kind Kind, context string) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		cp := *existing
		cp.contexts = append(append([]string{}, existing.contexts...), context)
		return &cp
	}
	return &Error{
		status:   status,
		kind:     kind,
		cause:    errors.WithMessage(err, context),
		contexts: []string{context},
	}
}

// Context appends a context string without changing status/kind.
func (e *Error) Context(msg string) *Error {
	cp := *e
	cp.contexts = append(append([]string{}, e.contexts...), msg)
	return &cp
}

// WithField attaches a metrics tag to the error.
func (e *Error) WithField(key, value string) *Error {
	cp := *e
	cp.fields = make(map[string]string, len(e.fields)+1)
	for k, v := range e.fields {
		cp.fields[k] = v
	}
	cp.fields[key] = value
	return &cp
}

func (e *Error) Error() string {
	if len(e.contexts) == 0 {
		return e.cause.Error()
	}
	msg := e.cause.Error()
	for i := len(e.contexts) - 1; i >= 0; i-- {
		msg = fmt.Sprintf("%s: %s", e.contexts[i], msg)
	}
	return msg
}

// Unwrap exposes the cause chain to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Status returns the error's status code.
func (e *Error) Status() StatusCode { return e.status }

// Kind returns the error's specific kind.
func (e *Error) Kind() Kind { return e.kind }

// ClientMessage scrubs internal errors to a generic message; every
// other category may expose its own Display form.
func (e *Error) ClientMessage() string {
	if e.status == StatusInternal || e.status == StatusUnexpected {
		return "Internal server error"
	}
	return e.Error()
}

// MetricsTags returns (key, value) pairs suitable for counting this
// error in an observability pipeline.
func (e *Error) MetricsTags() [][2]string {
	tags := [][2]string{
		{"status", e.status.String()},
		{"kind", string(e.kind)},
	}
	for k, v := range e.fields {
		tags = append(tags, [2]string{k, v})
	}
	return tags
}

// Helper constructors for the most common kinds, mirroring spec.md §7.

func NotFound(msg string) *Error  { return New(StatusNotFound, KindNotFound, msg) }
func WrongType(msg string) *Error { return New(StatusWrongType, KindWrongType, msg) }
func InvalidArgs(msg string) *Error {
	return New(StatusInvalidArgs, KindInvalidArgs, msg)
}
func InvalidUtf8(msg string) *Error { return New(StatusInvalidUtf8, KindInvalidUtf8, msg) }
func InvalidKey(msg string) *Error  { return New(StatusInvalidKey, KindInvalidKey, msg) }

// ParseError models the structured decoding failure from §4.8.
type ParseFields struct {
	Structure string
	Reason    string
	Offset    *int64
	Key       *string
}

func ParseErr(f ParseFields) *Error {
	msg := fmt.Sprintf("%s: %s", f.Structure, f.Reason)
	e := New(StatusParseError, KindParseError, msg).
		WithField("structure", f.Structure).
		WithField("reason", f.Reason)
	if f.Offset != nil {
		e = e.WithField("offset", fmt.Sprintf("%d", *f.Offset))
	}
	if f.Key != nil {
		e = e.WithField("key", *f.Key)
	}
	return e
}

func UnsupportedVersion(msg string) *Error {
	return New(StatusUnsupportedVersion, KindUnsupportedVersion, msg)
}
func IncompatibleVersion(msg string) *Error {
	return New(StatusIncompatibleVersion, KindIncompatibleVersion, msg)
}
func IO(err error) *Error { return Wrap(err, StatusIO, KindIO, "io error") }
func Timeout(msg string) *Error {
	return New(StatusTimeout, KindTimeout, msg)
}
func ConnectionClosed(msg string) *Error {
	return New(StatusConnectionClosed, KindConnectionClosed, msg)
}
func ConnectionFailed(err error) *Error {
	return Wrap(err, StatusConnectionFailed, KindConnectionFailed, "connection failed")
}
func UnexpectedEOF(msg string) *Error {
	return New(StatusUnexpectedEOF, KindUnexpectedEOF, msg)
}
func SizeLimit(msg string) *Error   { return New(StatusSizeLimit, KindSizeLimit, msg) }
func RateLimited(msg string) *Error { return New(StatusRateLimited, KindRateLimited, msg) }
func Internal(msg string) *Error    { return New(StatusInternal, KindInternal, msg) }
func Unexpected(err error) *Error {
	return Wrap(err, StatusUnexpected, KindUnexpected, "unexpected error")
}

func AuthError(kind Kind, msg string) *Error { return New(StatusAuth, kind, msg) }
func ClusterError(kind Kind, msg string) *Error {
	return New(StatusCluster, kind, msg)
}
func PubSubError(kind Kind, msg string) *Error { return New(StatusPubSub, kind, msg) }
