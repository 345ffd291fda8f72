package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validContract() Contract {
	return Contract{
		UniqueKey:          "KEY1",
		RecipientName:      "ACME CORP",
		AwardingAgencyName: "Department of Testing",
		CurrentTotalValue:  Float64Ptr(1000),
		ActionDate:         TimePtr(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)),
	}
}

func TestMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Contract)
		missing bool
	}{
		{"complete", func(c *Contract) {}, false},
		{"no key", func(c *Contract) { c.UniqueKey = "" }, true},
		{"no recipient", func(c *Contract) { c.RecipientName = "" }, true},
		{"no agency", func(c *Contract) { c.AwardingAgencyName = "" }, true},
		{"no value", func(c *Contract) { c.CurrentTotalValue = nil }, true},
		{"no action date", func(c *Contract) { c.ActionDate = nil }, true},
		{"no end date is fine", func(c *Contract) { c.EndDate = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validContract()
			tt.mutate(&c)
			assert.Equal(t, tt.missing, c.MissingRequired())
		})
	}
}

func TestBackfill(t *testing.T) {
	c := validContract()
	c.TransactionDescription = nil
	c.BaseDescription = StringPtr("")
	c.NAICSDescription = nil

	c.Backfill()

	assert.Equal(t, PlaceholderDescription, *c.TransactionDescription)
	assert.Equal(t, PlaceholderBaseDescription, *c.BaseDescription)
	assert.Equal(t, PlaceholderNAICS, *c.NAICSDescription)
}

func TestBackfill_KeepsExistingText(t *testing.T) {
	c := validContract()
	c.TransactionDescription = StringPtr("Road maintenance")

	c.Backfill()

	assert.Equal(t, "Road maintenance", *c.TransactionDescription)
}
