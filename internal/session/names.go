package session

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DisplayName derives a human name from an email's local part: dots and
// underscores separate words, and each word is title-cased.
// "jane.doe@example.com" becomes "Jane Doe"; other punctuation is kept,
// so "mary-jane@x.com" becomes "Mary-jane".
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_'
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	if len(words) == 0 {
		return email
	}
	return strings.Join(words, " ")
}

// Initials returns up to two upper-case initials for an avatar.
func Initials(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}
