package ports

import (
	"context"

	"github.com/bft-labs/sheetbridge/internal/domain"
)

// Processor handles messages relayed by channels.
// One processor is shared by every open channel, so Process must be safe for
// concurrent use.
type Processor interface {
	Process(ctx context.Context, msg domain.Message) (domain.Message, error)
}
