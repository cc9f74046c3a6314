package transfers

import "stockyard/pkg/numerator"

const (
	// NumberPrefix for transfer document numbers (TR-2026-00001).
	NumberPrefix = "TR"

	// NumeratorStrategy: transfers move real stock, so numbering is
	// gap-free strict.
	NumeratorStrategy = numerator.StrategyStrict
)
