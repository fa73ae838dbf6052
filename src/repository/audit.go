package repository

import (
	"context"

	"precisioncalc/src/model"
)

// Auditor bundles the two audit repositories behind the sink interface the
// calculation service persists through.
type Auditor struct {
	calculations *CalculationRepository
	healings     *HealingRepository
}

// NewAuditor creates an auditor backed by the main database.
func NewAuditor() *Auditor {
	return &Auditor{
		calculations: NewCalculationRepository(),
		healings:     NewHealingRepository(),
	}
}

// NewAuditorWith creates an auditor over explicit repositories.
func NewAuditorWith(calculations *CalculationRepository, healings *HealingRepository) *Auditor {
	return &Auditor{calculations: calculations, healings: healings}
}

func (a *Auditor) RecordCalculation(ctx context.Context, record *model.CalculationRecord) error {
	return a.calculations.Create(ctx, record)
}

func (a *Auditor) RecordHealing(ctx context.Context, record *model.HealingRecord) error {
	return a.healings.Create(ctx, record)
}
