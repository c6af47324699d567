package columns

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/nconklindev/warrantor/internal/types"
)

// Customer holds the labels an uploaded customer sheet is expected to carry.
var Customer = []string{
	"Order ID",
	"Customer Name",
	"Email",
	"Phone",
	"Purchase Date",
	"Product Name",
	"Product Model",
	"Order Value",
}

// Normalize lower-cases a label and drops whitespace and punctuation, so
// "E-mail", "e mail" and "EMAIL" all compare as "email".
func Normalize(label string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, label))
}

// Matches reports whether key covers the expected label: the normalized key
// must contain the normalized label.
func Matches(key, expected string) bool {
	return strings.Contains(Normalize(key), Normalize(expected))
}

// Validate returns the expected labels that no key of the first record covers,
// in the order they were given. An empty record set reports every label missing.
func Validate(records []types.Record, expected []string) []string {
	var first types.Record
	if len(records) > 0 {
		first = records[0]
	}

	var missing []string
	for _, label := range expected {
		found := false
		for key := range first {
			if Matches(key, label) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, label)
		}
	}

	return missing
}

// Lookup finds the value of the field whose key matches label, trying an exact
// key first and then a normalized comparison.
func Lookup(record types.Record, label string) (string, bool) {
	if v, ok := record[label]; ok {
		return v, true
	}
	want := Normalize(label)
	for _, key := range slices.Sorted(maps.Keys(record)) {
		if Normalize(key) == want {
			return record[key], true
		}
	}
	return "", false
}
