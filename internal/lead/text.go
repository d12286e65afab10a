package lead

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
)

// IsTitle reports whether s is title-cased: it contains at least one cased
// rune, every uppercase rune follows an uncased rune, and every lowercase rune
// follows a cased rune. "Mary-Jane O'Neil" passes; "McDonald" and "ACME" fail.
func IsTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

func checkEmail(s string) error {
	if s == "" {
		return errors.New("empty address")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return errors.New("malformed address")
	}
	if addr.Name != "" || addr.Address != s {
		return errors.New("display names are not allowed")
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return errors.New("missing local part or domain")
	}
	return checkDomain(s[at+1:])
}

func checkDomain(domain string) error {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return errors.New("the domain name is not valid: it must contain a period")
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return errors.New("the domain name has an empty or oversized label")
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return errors.New("a domain label cannot start or end with a hyphen")
		}
		for _, r := range label {
			if r != '-' && !isASCIIAlnum(r) {
				return errors.New("the domain name contains invalid characters")
			}
		}
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return errors.New("the top-level domain is too short")
	}
	// Internationalized TLDs arrive in punycode, e.g. "xn--p1ai".
	if strings.HasPrefix(strings.ToLower(tld), "xn--") {
		return nil
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return errors.New("the top-level domain must be alphabetic")
		}
	}
	return nil
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
