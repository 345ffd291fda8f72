// Package model defines the contract transaction record shared by the
// reduction pipeline, the persistence layer, and the query store.
package model

import "time"

// Placeholder values backfilled into empty free-text fields.
const (
	PlaceholderDescription     = "No description available"
	PlaceholderBaseDescription = "No base description available"
	PlaceholderNAICS           = "Unclassified"
)

// Columns is the projected column set, in output order. Source extracts must
// contain at least these columns; everything else is dropped.
var Columns = []string{
	"contract_transaction_unique_key",
	"recipient_name",
	"awarding_agency_name",
	"current_total_value_of_award",
	"potential_total_value_of_award",
	"action_date",
	"period_of_performance_current_end_date",
	"transaction_description",
	"prime_award_base_transaction_description",
	"recipient_duns",
	"awarding_agency_code",
	"awarding_sub_agency_name",
	"award_type",
	"naics_code",
	"naics_description",
}

// Contract is one USAspending contract transaction, projected down to the
// columns the explorer keeps. Optional fields are pointers; a nil pointer
// means the source cell was empty or failed to parse.
type Contract struct {
	UniqueKey           string   `parquet:"contract_transaction_unique_key" json:"contract_transaction_unique_key"`
	RecipientName       string   `parquet:"recipient_name" json:"recipient_name"`
	AwardingAgencyName  string   `parquet:"awarding_agency_name" json:"awarding_agency_name"`
	CurrentTotalValue   *float64 `parquet:"current_total_value_of_award,optional" json:"current_total_value_of_award"`
	PotentialTotalValue *float64 `parquet:"potential_total_value_of_award,optional" json:"potential_total_value_of_award"`

	ActionDate *time.Time `parquet:"action_date,optional,timestamp" json:"action_date"`
	EndDate    *time.Time `parquet:"period_of_performance_current_end_date,optional,timestamp" json:"period_of_performance_current_end_date"`

	TransactionDescription *string `parquet:"transaction_description,optional" json:"transaction_description"`
	BaseDescription        *string `parquet:"prime_award_base_transaction_description,optional" json:"prime_award_base_transaction_description"`
	RecipientDUNS          *string `parquet:"recipient_duns,optional" json:"recipient_duns"`
	AwardingAgencyCode     *string `parquet:"awarding_agency_code,optional" json:"awarding_agency_code"`
	AwardingSubAgencyName  *string `parquet:"awarding_sub_agency_name,optional" json:"awarding_sub_agency_name"`
	AwardType              *string `parquet:"award_type,optional" json:"award_type"`
	NAICSCode              *string `parquet:"naics_code,optional" json:"naics_code"`
	NAICSDescription       *string `parquet:"naics_description,optional" json:"naics_description"`
}

// MissingRequired reports whether any field required after cleaning is absent.
// Required: unique key, recipient name, awarding agency name, current total
// value, action date.
func (c *Contract) MissingRequired() bool {
	return c.UniqueKey == "" ||
		c.RecipientName == "" ||
		c.AwardingAgencyName == "" ||
		c.CurrentTotalValue == nil ||
		c.ActionDate == nil
}

// Backfill replaces empty free-text fields with their placeholder values.
func (c *Contract) Backfill() {
	if c.TransactionDescription == nil || *c.TransactionDescription == "" {
		c.TransactionDescription = StringPtr(PlaceholderDescription)
	}
	if c.BaseDescription == nil || *c.BaseDescription == "" {
		c.BaseDescription = StringPtr(PlaceholderBaseDescription)
	}
	if c.NAICSDescription == nil || *c.NAICSDescription == "" {
		c.NAICSDescription = StringPtr(PlaceholderNAICS)
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
