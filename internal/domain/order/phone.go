package order

import "strings"

// NormalizePhone strips accepted separators (spaces, dots, dashes) from a
// contact phone number and validates the result. Accepted shapes:
//
//   - a 10-digit national number starting with 0
//   - +33 or 0033 followed by 9 digits, the first of which is 1-9
//
// It returns the normalized number or ErrInvalidPhone.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '.', '-':
			continue
		default:
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if !validPhone(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func validPhone(phone string) bool {
	switch {
	case strings.HasPrefix(phone, "+33"):
		return validInternationalSuffix(phone[len("+33"):])
	case strings.HasPrefix(phone, "0033"):
		return validInternationalSuffix(phone[len("0033"):])
	case len(phone) == 10 && phone[0] == '0':
		return allDigits(phone)
	}
	return false
}

// validInternationalSuffix checks the 9 digits following the +33/0033 prefix.
// The first digit cannot be 0.
func validInternationalSuffix(s string) bool {
	return len(s) == 9 && s[0] >= '1' && s[0] <= '9' && allDigits(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
