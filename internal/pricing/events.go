package pricing

import "context"

// PriceConfirmedEvent fires after a label-print price override committed.
// The printed code should end up attached to the product.
type PriceConfirmedEvent struct {
	ProductID    int64
	PrintedCode  string
	Symbology    string
	BarcodeJobID string
	ActorID      int64
}

// IntegrationHandler receives pricing events for barcode integration.
type IntegrationHandler interface {
	HandlePriceConfirmed(ctx context.Context, evt PriceConfirmedEvent) error
}
