// Package explain renders screening outcomes as plain-language text.
package explain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCents renders integer cents as a two-decimal dollar amount with
// digit grouping, e.g. 210000 -> "$2,100.00". Display only; arithmetic stays
// in cents.
func FormatCents(v int64) string {
	return usd.Sprintf("$%.2f", float64(v)/100)
}
