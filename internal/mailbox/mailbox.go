package mailbox

import (
	"context"
	"time"
)

// InboundMessage is one message header set pulled from the monitored mailbox.
type InboundMessage struct {
	Subject    string
	Sender     string
	ReceivedAt time.Time
}

// Reader lists messages received since a cutoff. Used exclusively by the
// reply correlator.
type Reader interface {
	ListSince(ctx context.Context, since time.Time) ([]InboundMessage, error)
}
