// Package natsx is a thin convenience layer over NATS and JetStream.
//
// It does not implement ordering, persistence, retry policies, or flow
// control of its own. Delivery guarantees belong to the NATS server and to
// github.com/nats-io/nats.go; this package only holds connection handles,
// forwards calls with structured logging, and keeps the ack/nak bookkeeping
// for consumer handlers in one place.
//
// A Conn owns the core connection and the JetStream handle. Every other type
// (Publisher, Subscriber, QueueWorker, Responder, StreamPublisher,
// PullWorker, PushWorker) borrows those handles at construction and carries
// no state beyond its subject, stream, and durable names. None of them may
// be used after the owning Conn is closed.
package natsx
