package sku

import (
	"context"
	"fmt"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// SequenceStore abstracts the persisted per-(business, prefix) counter.
type SequenceStore interface {
	Next(ctx context.Context, businessID int64, prefix string) (int64, error)
	Current(ctx context.Context, businessID int64, prefix string) (int64, error)
}

// BusinessConfigPort reads a business's SKU settings.
type BusinessConfigPort interface {
	GetBusinessConfig(ctx context.Context, businessID int64) (catalog.BusinessConfig, error)
}

// Service derives prefixes and issues sequence-backed SKUs.
type Service struct {
	sequences  SequenceStore
	businesses BusinessConfigPort
	metrics    *observability.Metrics
}

// NewService builds Service.
func NewService(sequences SequenceStore, businesses BusinessConfigPort, metrics *observability.Metrics) *Service {
	return &Service{sequences: sequences, businesses: businesses, metrics: metrics}
}

// GenerateInput names the optional dimensions of a generation request.
type GenerateInput struct {
	BusinessID     int64
	CategoryName   string
	DepartmentName string
}

const defaultDigits = 5

// Generate claims the next sequence for the derived prefix and formats the
// SKU. Two concurrent calls for the same key always receive distinct
// sequence numbers.
func (s *Service) Generate(ctx context.Context, input GenerateInput) (string, error) {
	cfg, format, prefix, err := s.resolvePrefix(ctx, input)
	if err != nil {
		return "", err
	}
	seq, err := s.sequences.Next(ctx, input.BusinessID, prefix)
	if err != nil {
		return "", fmt.Errorf("sku: next sequence: %w", err)
	}
	s.metrics.ObserveSkuGenerated(format.Label())
	return formatSKU(prefix, seq, cfg.SKUDigits), nil
}

// Preview computes the SKU the next Generate call would return without
// mutating the stored counter. The result is advisory: a concurrent
// generation can make it stale.
func (s *Service) Preview(ctx context.Context, input GenerateInput) (string, error) {
	cfg, _, prefix, err := s.resolvePrefix(ctx, input)
	if err != nil {
		return "", err
	}
	seq, err := s.sequences.Current(ctx, input.BusinessID, prefix)
	if err != nil {
		return "", fmt.Errorf("sku: current sequence: %w", err)
	}
	return formatSKU(prefix, seq+1, cfg.SKUDigits), nil
}

func (s *Service) resolvePrefix(ctx context.Context, input GenerateInput) (catalog.BusinessConfig, Format, string, error) {
	if input.BusinessID == 0 {
		return catalog.BusinessConfig{}, "", "", fmt.Errorf("sku: business required: %w", shared.ErrValidation)
	}
	cfg, err := s.businesses.GetBusinessConfig(ctx, input.BusinessID)
	if err != nil {
		return catalog.BusinessConfig{}, "", "", err
	}
	format, err := ParseFormat(cfg.SKUFormat)
	if err != nil {
		return catalog.BusinessConfig{}, "", "", err
	}
	prefix := DerivePrefix(format, cfg.SKUPrefix, input.CategoryName, input.DepartmentName)
	if prefix == "" {
		return catalog.BusinessConfig{}, "", "", fmt.Errorf("sku: business %d has no usable prefix: %w", input.BusinessID, shared.ErrValidation)
	}
	return cfg, format, prefix, nil
}

func formatSKU(prefix string, seq int64, digits int) string {
	if digits <= 0 {
		digits = defaultDigits
	}
	return fmt.Sprintf("%s-%0*d", prefix, digits, seq)
}
