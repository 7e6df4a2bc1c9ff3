package security

import "unicode"

// ValidateStrength checks password against the registration strength rules and
// returns every violated rule, not just the first, so callers can surface the
// complete list. An empty slice means the password is acceptable.
//
// Rules: 8-72 bytes, at least one lowercase letter, one uppercase letter, one
// digit, and one symbol.
func ValidateStrength(password string) []string {
	var violations []string

	if len(password) < 8 {
		violations = append(violations, "password must be at least 8 characters")
	}
	if len(password) > MaxPasswordBytes {
		violations = append(violations, "password must be at most 72 bytes")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasLower {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain at least one digit")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain at least one symbol")
	}

	return violations
}
