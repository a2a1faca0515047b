package vec

// FloorDiv делит с округлением к минус бесконечности.
// В отличие от оператора `/` для отрицательных a результат не смещается к нулю:
// FloorDiv(-1, 16) == -1.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает остаток, согласованный с FloorDiv: 0 <= FloorMod(a, b) < b при b > 0.
func FloorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// Abs возвращает модуль целого числа
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
