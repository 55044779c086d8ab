package service

import "FinSignal/internal/domain/models"

// Evaluator derives a direction from an oldest-first, closed bar sequence.
// It never fails: insufficient data yields DirectionNone.
type Evaluator interface {
	Evaluate(bars []models.Bar) models.Evaluation
}
