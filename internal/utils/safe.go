package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrInvalid = errors.New("invalid value")

var (
	ClaveRegexp    = regexp.MustCompile(`^[A-Z0-9-]{1,16}$`)
	CURPRegexp     = regexp.MustCompile(`^[A-Z]{4}\d{6}[A-Z]{6}[A-Z0-9]{2}$`)
	EmailRegexp    = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	QuincenaRegexp = regexp.MustCompile(`^\d{4}(0[1-9]|1\d|2[0-4])$`)
	RFCRegexp      = regexp.MustCompile(`^[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}$`)
)

const DefaultMaxLen = 250

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func removeAccents(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// SafeString upper-cases, strips accents (optionally keeping Ñ) and keeps
// only letters, digits, spaces and - . , : ; / ( )
func SafeString(s string, maxLen int, keepEnie bool) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if keepEnie {
		parts := strings.Split(s, "Ñ")
		for i := range parts {
			parts[i] = removeAccents(parts[i])
		}
		s = strings.Join(parts, "Ñ")
	} else {
		s = removeAccents(s)
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune("-.,:;/() ", r):
			b.WriteRune(r)
		case r == 'Ñ' && keepEnie:
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return truncate(strings.Join(strings.Fields(b.String()), " "), maxLen)
}

func SafeClave(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if !ClaveRegexp.MatchString(s) {
		return "", ErrInvalid
	}
	return s, nil
}

// SafeEmail lower-cases and validates; fragments are only cleaned.
func SafeEmail(s string, searchFragment bool) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if searchFragment {
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@._-", r) {
				return r
			}
			return -1
		}, s), nil
	}
	if len(s) > 256 || !EmailRegexp.MatchString(s) {
		return "", ErrInvalid
	}
	return s, nil
}

func SafeRFC(s string, searchFragment bool) (string, error) {
	s = onlyRFCChars(s)
	if searchFragment {
		return s, nil
	}
	if !RFCRegexp.MatchString(s) {
		return "", ErrInvalid
	}
	return s, nil
}

func SafeCURP(s string, searchFragment bool) (string, error) {
	s = onlyRFCChars(s)
	if searchFragment || s == "" {
		return s, nil
	}
	if !CURPRegexp.MatchString(s) {
		return "", ErrInvalid
	}
	return s, nil
}

func SafeQuincena(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !QuincenaRegexp.MatchString(s) {
		return "", ErrInvalid
	}
	return s, nil
}

// SafeMessage collapses whitespace and shortens with an ellipsis.
func SafeMessage(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return truncate(s, maxLen-3) + "..."
}

// ValidContrasena requires 8 to 48 letters or digits with at least one
// lower case, one upper case and one digit.
func ValidContrasena(s string) bool {
	if len(s) < 8 || len(s) > 48 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_':
		default:
			return false
		}
	}
	return lower && upper && digit
}

func onlyRFCChars(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == 'Ñ' || r == '&' {
			return r
		}
		return -1
	}, s)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:maxLen]))
}
