// Package validation содержит функции валидации входных данных.
package validation

// IsValidCardNumber проверяет формат номера карты: две цифры года, дефис и не менее трёх цифр счётчика.
func IsValidCardNumber(number string) bool {
	if len(number) < 6 || number[2] != '-' {
		return false
	}

	for i, ch := range number {
		if i == 2 {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}
