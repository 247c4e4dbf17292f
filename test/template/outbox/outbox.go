package outbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
)

// Outbox is a mailer.Sender that keeps messages in memory.
type Outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *Outbox) Name() string { return "outbox" }

func (o *Outbox) Send(_ context.Context, msg mailer.Message) (mailer.SendResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return mailer.SendResult{MessageID: fmt.Sprintf("outbox-%d", len(o.sent))}, nil
}

func (o *Outbox) Sent() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]mailer.Message, len(o.sent))
	copy(out, o.sent)
	return out
}
