// Package textnorm normalizes search keywords typed through an IME so that
// full-width digits and letters match the half-width values stored in the DB.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var folder = cases.Fold()

// Keyword folds width and case and trims surrounding space.
func Keyword(s string) string {
	s = width.Narrow.String(s)
	s = folder.String(s)
	return strings.TrimSpace(s)
}

// Identifier normalizes ISBNs and ID card numbers: width-folded, upper-case
// check characters (the trailing X of both), hyphens and spaces removed.
func Identifier(s string) string {
	s = width.Narrow.String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, s)
	return strings.ToUpper(s)
}
