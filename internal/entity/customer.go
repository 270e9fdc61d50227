package entity

import "github.com/uptrace/bun"

// Customer is keyed by phone number; repeated orders overwrite name and city.
type Customer struct {
	bun.BaseModel `bun:"table:users"`

	Phone string `bun:"phone,pk" json:"phone"`
	Name  string `bun:"name" json:"name"`
	City  string `bun:"city" json:"city"`
}
