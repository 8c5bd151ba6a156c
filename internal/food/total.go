package food

// GetTotal returns a + b. NaN operands yield NaN.
func GetTotal(a, b float64) float64 {
	return a + b
}
