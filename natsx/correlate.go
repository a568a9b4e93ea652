package natsx

import (
	"context"

	"github.com/shandysiswandi/pocketmq/observe"
	"github.com/shandysiswandi/pocketmq/uid"
)

// HeaderCorrelationID is the message header carrying the correlation ID
// across publish/consume hops.
const HeaderCorrelationID = "cID"

var ids uid.Generator = uid.NewUUID()

// correlationID returns the ID carried by ctx, minting a fresh one when the
// caller never set one.
func correlationID(ctx context.Context) string {
	if id := observe.GetCorrelationID(ctx); id != "" {
		return id
	}
	return ids.Generate()
}

// liftCorrelationID moves the correlation header of msg into ctx so handler
// logs carry the publisher's ID. Messages without the header get a new one.
func liftCorrelationID(ctx context.Context, msg Message) context.Context {
	if h := msg.Headers(); h != nil {
		if id := h.Get(HeaderCorrelationID); id != "" {
			return observe.SetCorrelationID(ctx, id)
		}
	}
	return observe.SetCorrelationID(ctx, ids.Generate())
}
