package export

import (
	"strings"
	"time"

	"github.com/parishkit/chms-api/internal/model"
)

// PlanningCenterCSV matches Planning Center's people import layout.
// Dates are MM/DD/YYYY, phones are raw digits.
var PlanningCenterCSV = &Format{
	ID:   FormatPlanningCenter,
	Name: "Planning Center",
	Columns: []Column{
		{"First name", func(c *model.ConnectCard) string {
			first, _ := splitName(c.Name)
			return first
		}},
		{"Last name", func(c *model.ConnectCard) string {
			_, last := splitName(c.Name)
			return last
		}},
		{"Email", func(c *model.ConnectCard) string { return strVal(c.Email) }},
		{"Phone number", func(c *model.ConnectCard) string { return phoneDigits(c.Phone) }},
		{"Home address", func(c *model.ConnectCard) string { return strVal(c.Address) }},
		{"Membership", func(c *model.ConnectCard) string { return membershipStatus(c.VisitType) }},
		{"Created at", func(c *model.ConnectCard) string { return timeVal(c.CreatedAt, "01/02/2006") }},
		{"Notes", func(c *model.ConnectCard) string { return strVal(c.PrayerText) }},
	},
}

// BreezeCSV matches Breeze's people import layout. Dates are
// YYYY-MM-DD, phones are (NNN) NNN-NNNN, interests flatten into Tags.
var BreezeCSV = &Format{
	ID:   FormatBreeze,
	Name: "Breeze",
	Columns: []Column{
		{"Name", func(c *model.ConnectCard) string { return c.Name }},
		{"Email", func(c *model.ConnectCard) string { return strVal(c.Email) }},
		{"Mobile", func(c *model.ConnectCard) string { return phonePretty(c.Phone) }},
		{"Street Address", func(c *model.ConnectCard) string { return strVal(c.Address) }},
		{"Status", func(c *model.ConnectCard) string { return membershipStatus(c.VisitType) }},
		{"Tags", func(c *model.ConnectCard) string { return strings.Join(c.Interests, ";") }},
		{"Added Date", func(c *model.ConnectCard) string { return timeVal(c.CreatedAt, "2006-01-02") }},
		{"Notes", func(c *model.ConnectCard) string { return strVal(c.PrayerText) }},
	},
}

// GenericCSV is the full-fidelity export with internal identifiers,
// ISO-8601 dates.
var GenericCSV = &Format{
	ID:   FormatGeneric,
	Name: "Generic",
	Columns: []Column{
		{"ID", func(c *model.ConnectCard) string { return c.ID.String() }},
		{"Full Name", func(c *model.ConnectCard) string { return c.Name }},
		{"First Name", func(c *model.ConnectCard) string {
			first, _ := splitName(c.Name)
			return first
		}},
		{"Last Name", func(c *model.ConnectCard) string {
			_, last := splitName(c.Name)
			return last
		}},
		{"Email", func(c *model.ConnectCard) string { return strVal(c.Email) }},
		{"Phone", func(c *model.ConnectCard) string { return phoneDigits(c.Phone) }},
		{"Address", func(c *model.ConnectCard) string { return strVal(c.Address) }},
		{"Visit Type", func(c *model.ConnectCard) string { return strVal(c.VisitType) }},
		{"Status", func(c *model.ConnectCard) string { return c.Status }},
		{"Interests", func(c *model.ConnectCard) string { return strings.Join(c.Interests, ";") }},
		{"Volunteer Category", func(c *model.ConnectCard) string { return strVal(c.VolunteerCategory) }},
		{"Created At", func(c *model.ConnectCard) string { return timeVal(c.CreatedAt, time.RFC3339) }},
	},
}
