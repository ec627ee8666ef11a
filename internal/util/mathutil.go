package util

import "math"

// RoundToInt округляет к ближайшему целому, половину вверх: RoundToInt(-0.5) == 0
func RoundToInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

// PositiveMod возвращает остаток от деления, всегда неотрицательный.
// Для отрицательных value сохраняет период: PositiveMod(-1, 4) == 3.
func PositiveMod(value, mod int) int {
	if value >= 0 {
		return value % mod
	}
	return (1-(value+1)/mod)*mod + value
}
