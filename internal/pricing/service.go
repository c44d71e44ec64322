package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	History(ctx context.Context, productID, variantID int64, limit int) ([]AuditRow, error)
}

// historyMaxLimit caps a history page.
const historyMaxLimit = 500

// Service applies price overrides and reads the audit trail.
type Service struct {
	repo        RepositoryPort
	maxPrice    float64
	metrics     *observability.Metrics
	integration IntegrationHandler
	logger      *slog.Logger
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	MaxPrice float64
}

// NewService builds Service. The integration handler, when set, receives
// post-commit events for label-print overrides.
func NewService(repo RepositoryPort, cfg ServiceConfig, metrics *observability.Metrics, integration IntegrationHandler, logger *slog.Logger) *Service {
	return &Service{repo: repo, maxPrice: cfg.MaxPrice, metrics: metrics, integration: integration, logger: logger}
}

// ConfirmResult is the outcome of a confirmed update.
type ConfirmResult struct {
	ProductID int64
	VariantID int64
	OldPrice  float64
	NewPrice  float64
	Audit     AuditRow
}

// ConfirmUpdate updates exactly one target (the variant's price when a
// variant is given, otherwise the product's sell price) and appends one
// immutable audit row, all in a single transaction. Fan-out to "all
// variants" is never performed here.
func (s *Service) ConfirmUpdate(ctx context.Context, input ConfirmInput) (ConfirmResult, error) {
	if input.ProductID == 0 {
		return ConfirmResult{}, fmt.Errorf("pricing: product required: %w", shared.ErrValidation)
	}
	if input.NewPrice < 0 || input.NewPrice > s.maxPrice {
		return ConfirmResult{}, fmt.Errorf("%w: %.2f not in [0, %.2f]", ErrPriceOutOfRange, input.NewPrice, s.maxPrice)
	}
	if strings.TrimSpace(input.Reason) == "" {
		return ConfirmResult{}, fmt.Errorf("pricing: reason required: %w", shared.ErrValidation)
	}
	if input.BarcodeJobID != "" {
		if _, err := uuid.Parse(input.BarcodeJobID); err != nil {
			return ConfirmResult{}, fmt.Errorf("pricing: invalid barcode job id: %w", shared.ErrValidation)
		}
	}

	var result ConfirmResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var oldPrice float64
		if input.VariantID != 0 {
			ownerID, price, err := tx.GetVariantPriceForUpdate(ctx, input.VariantID)
			if err != nil {
				return err
			}
			if ownerID != input.ProductID {
				return fmt.Errorf("pricing: variant %d does not belong to product %d: %w", input.VariantID, input.ProductID, shared.ErrValidation)
			}
			oldPrice = price
			if err := tx.UpdateVariantPrice(ctx, input.VariantID, input.NewPrice); err != nil {
				return err
			}
		} else {
			price, err := tx.GetProductPriceForUpdate(ctx, input.ProductID)
			if err != nil {
				return err
			}
			oldPrice = price
			if err := tx.UpdateProductPrice(ctx, input.ProductID, input.NewPrice); err != nil {
				return err
			}
		}
		row := AuditRow{
			ID:           uuid.New(),
			ProductID:    input.ProductID,
			VariantID:    input.VariantID,
			OldPrice:     oldPrice,
			NewPrice:     input.NewPrice,
			ChangedBy:    input.ActorID,
			ChangedAt:    time.Now().UTC(),
			Reason:       strings.TrimSpace(input.Reason),
			Notes:        strings.TrimSpace(input.Notes),
			BarcodeJobID: input.BarcodeJobID,
		}
		if err := tx.InsertAudit(ctx, row); err != nil {
			return err
		}
		result = ConfirmResult{
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			OldPrice:  oldPrice,
			NewPrice:  input.NewPrice,
			Audit:     row,
		}
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	s.metrics.ObservePriceSync()
	if s.integration != nil && input.PrintedCode != "" {
		evt := PriceConfirmedEvent{
			ProductID:    input.ProductID,
			PrintedCode:  input.PrintedCode,
			Symbology:    input.Symbology,
			BarcodeJobID: input.BarcodeJobID,
			ActorID:      input.ActorID,
		}
		if err := s.integration.HandlePriceConfirmed(ctx, evt); err != nil && s.logger != nil {
			// The price update is already committed; attach problems are
			// reported through the conflict flow, not rolled back.
			s.logger.Warn("price confirmed integration",
				slog.Int64("product_id", input.ProductID),
				slog.Any("error", err))
		}
	}
	return result, nil
}

// History lists audit rows for a product (optionally one variant), newest
// first, each annotated with the price delta.
func (s *Service) History(ctx context.Context, productID, variantID int64, limit int) ([]HistoryEntry, error) {
	if productID == 0 {
		return nil, fmt.Errorf("pricing: product required: %w", shared.ErrValidation)
	}
	if limit <= 0 || limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	rows, err := s.repo.History(ctx, productID, variantID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			AuditRow:        row,
			PriceDifference: row.NewPrice - row.OldPrice,
		})
	}
	return entries, nil
}
