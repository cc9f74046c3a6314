package purchasing

import "stockyard/pkg/numerator"

const NumberPrefix = "PO"

// Gapless numbering: purchase order numbers are referenced by
// suppliers, so holes from discarded cached ranges are not acceptable.
const NumeratorStrategy = numerator.StrategyStrict
