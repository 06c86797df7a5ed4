package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

func Slugify(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Initials derives the identifier prefix for an organization: the first three
// characters of a single-word name, or the first letter of each word.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	if len(words) == 1 {
		w := words[0]
		if len(w) > 3 {
			w = w[:3]
		}
		return strings.ToUpper(w)
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteByte(w[0])
	}
	return strings.ToUpper(b.String())
}

const codeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomCode returns 4 random alphanumeric uppercase characters, used to
// disambiguate default organization names.
func RandomCode() string {
	var b strings.Builder
	max := big.NewInt(int64(len(codeChars)))
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "0000"
		}
		b.WriteByte(codeChars[n.Int64()])
	}
	return b.String()
}
