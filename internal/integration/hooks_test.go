package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/barcode"
	"github.com/meridian-pos/meridian-pos/internal/pricing"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type fakeConflictChecker struct {
	inputs  []barcode.AttachInput
	replace []bool
	result  barcode.AddResult
	err     error
}

func (f *fakeConflictChecker) AddWithConflictCheck(ctx context.Context, input barcode.AttachInput, replaceConflict bool) (barcode.AddResult, error) {
	f.inputs = append(f.inputs, input)
	f.replace = append(f.replace, replaceConflict)
	if f.err != nil {
		return barcode.AddResult{}, f.err
	}
	return f.result, nil
}

func labelPrintEvent() pricing.PriceConfirmedEvent {
	return pricing.PriceConfirmedEvent{
		ProductID:   10,
		PrintedCode: "6291041500213",
		Symbology:   "EAN13",
		ActorID:     7,
	}
}

func TestHandlePriceConfirmedAttachesPrintedCode(t *testing.T) {
	checker := &fakeConflictChecker{result: barcode.AddResult{Outcome: barcode.OutcomeAdded}}
	hooks := NewHooks(checker, nil)

	require.NoError(t, hooks.HandlePriceConfirmed(context.Background(), labelPrintEvent()))
	require.Len(t, checker.inputs, 1)
	input := checker.inputs[0]
	assert.Equal(t, int64(10), input.ProductID)
	assert.Equal(t, "6291041500213", input.Code)
	assert.Equal(t, barcode.SymbologyEAN13, input.Symbology)
	assert.Equal(t, barcode.SourceLabelPrint, input.Source)
	assert.Equal(t, int64(7), input.ActorID)
	assert.False(t, checker.replace[0], "auto-attach never forces a replacement")
}

func TestHandlePriceConfirmedDefaultsSymbology(t *testing.T) {
	checker := &fakeConflictChecker{result: barcode.AddResult{Outcome: barcode.OutcomeAdded}}
	hooks := NewHooks(checker, nil)
	evt := labelPrintEvent()
	evt.Symbology = "mystery"

	require.NoError(t, hooks.HandlePriceConfirmed(context.Background(), evt))
	require.Len(t, checker.inputs, 1)
	assert.Equal(t, barcode.SymbologyCode128, checker.inputs[0].Symbology)
}

func TestHandlePriceConfirmedSkipsEmptyCode(t *testing.T) {
	checker := &fakeConflictChecker{}
	hooks := NewHooks(checker, nil)

	require.NoError(t, hooks.HandlePriceConfirmed(context.Background(), pricing.PriceConfirmedEvent{ProductID: 10}))
	assert.Empty(t, checker.inputs)
}

func TestHandlePriceConfirmedTreatsReprintAsBenign(t *testing.T) {
	checker := &fakeConflictChecker{err: fmt.Errorf("already attached: %w", shared.ErrValidation)}
	hooks := NewHooks(checker, nil)

	assert.NoError(t, hooks.HandlePriceConfirmed(context.Background(), labelPrintEvent()))
}

func TestHandlePriceConfirmedSurfacesOtherErrors(t *testing.T) {
	checker := &fakeConflictChecker{err: errors.New("db down")}
	hooks := NewHooks(checker, nil)

	err := hooks.HandlePriceConfirmed(context.Background(), labelPrintEvent())
	require.Error(t, err)
}

func TestHandlePriceConfirmedConflictIsNotAnError(t *testing.T) {
	checker := &fakeConflictChecker{result: barcode.AddResult{
		Outcome:  barcode.OutcomeConflict,
		Conflict: &barcode.ConflictInfo{ProductID: 99},
	}}
	hooks := NewHooks(checker, nil)

	assert.NoError(t, hooks.HandlePriceConfirmed(context.Background(), labelPrintEvent()))
}
