// Package entity holds the relational models shared by repositories and
// services.
package entity

import "github.com/shopspring/decimal"

func init() {
	// Money fields are rendered as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}
