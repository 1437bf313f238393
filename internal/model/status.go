package model

// StockStatus is an advisory band for a stock value, used for warnings and
// colouring. The engines never enforce MaxLevel.
// Keep these values stable; they are written to CSV output.
type StockStatus string

const (
	StatusLow  StockStatus = "LOW"
	StatusOK   StockStatus = "OK"
	StatusHigh StockStatus = "HIGH"
)

func Classify(stock, minLevel, maxLevel Level) StockStatus {
	switch {
	case stock < minLevel:
		return StatusLow
	case maxLevel > 0 && stock > maxLevel:
		return StatusHigh
	default:
		return StatusOK
	}
}
