package contracts

import "context"

// DeliveryWorker drains the delivery queue into the event router.
type DeliveryWorker interface {
	Run(ctx context.Context) error
	Process(ctx context.Context, messageID string, raw []byte) error
}
