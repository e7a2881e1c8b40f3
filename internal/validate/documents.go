// Package validate holds the pure field validators used by the
// registration pipeline and profile edits. All functions are
// side-effect free and safe for concurrent use.
package validate

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email reports whether the address is plausibly well-formed.
func Email(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Phone accepts 10 or 11 national digits (landline or mobile),
// ignoring any formatting characters.
func Phone(phone string) bool {
	digits := Digits(phone)
	return len(digits) == 10 || len(digits) == 11
}

// CEP accepts exactly 8 digits, ignoring the usual 12345-678 hyphen.
func CEP(cep string) bool {
	return len(Digits(cep)) == 8
}

// CPF verifies the two check digits of a Brazilian individual document
// number. Formatting characters are ignored.
func CPF(cpf string) bool {
	digits := Digits(cpf)
	if len(digits) != 11 || allSame(digits) {
		return false
	}
	if checkDigit(digits[:9], 10) != int(digits[9]-'0') {
		return false
	}
	return checkDigit(digits[:10], 11) == int(digits[10]-'0')
}

// CNPJ verifies the two check digits of a Brazilian organization
// document number. Formatting characters are ignored.
func CNPJ(cnpj string) bool {
	digits := Digits(cnpj)
	if len(digits) != 14 || allSame(digits) {
		return false
	}
	firstWeights := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	if weightedCheckDigit(digits[:12], firstWeights) != int(digits[12]-'0') {
		return false
	}
	return weightedCheckDigit(digits[:13], secondWeights) == int(digits[13]-'0')
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// checkDigit computes a CPF check digit: weights descend from
// firstWeight down to 2 across the given digits.
func checkDigit(digits string, firstWeight int) int {
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * (firstWeight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func weightedCheckDigit(digits string, weights []int) int {
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
