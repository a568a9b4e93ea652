package natsx

import "errors"

var (
	// ErrURLRequired is returned when Dial is called without a server URL.
	ErrURLRequired = errors.New("natsx: server url is required")
	// ErrSubjectRequired is returned when a subject is empty.
	ErrSubjectRequired = errors.New("natsx: subject is required")
	// ErrStreamRequired is returned when a stream name is empty.
	ErrStreamRequired = errors.New("natsx: stream name is required")
	// ErrDurableRequired is returned when a durable consumer name is empty.
	ErrDurableRequired = errors.New("natsx: durable name is required")
	// ErrQueueRequired is returned when a queue group name is empty.
	ErrQueueRequired = errors.New("natsx: queue group is required")
	// ErrHandlerRequired is returned when a nil handler is passed.
	ErrHandlerRequired = errors.New("natsx: handler is required")
	// ErrUnsupported is returned when an operation has no meaning for the
	// underlying message type, e.g. Respond on a JetStream delivery.
	ErrUnsupported = errors.New("natsx: unsupported operation")
)
