// Package export maps connect cards onto third-party import layouts
// and serializes them as CSV.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/parishkit/chms-api/internal/model"
)

// Format IDs accepted by the export endpoint.
const (
	FormatPlanningCenter = "planning_center"
	FormatBreeze         = "breeze"
	FormatGeneric        = "generic"
)

// Column pairs a header with its extractor. Extractors are pure and
// total: they always return a string (empty for missing data) and
// never error.
type Column struct {
	Header string
	Value  func(c *model.ConnectCard) string
}

// Format is a named, fixed column schema for one vendor.
type Format struct {
	ID      string
	Name    string
	Columns []Column
}

// Headers returns the column headers in declared order.
func (f *Format) Headers() []string {
	headers := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		headers[i] = col.Header
	}
	return headers
}

// Row maps one card to the format's columns.
func (f *Format) Row(c *model.ConnectCard) []string {
	row := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		row[i] = col.Value(c)
	}
	return row
}

// FileName builds the download name for an export run on the given day.
func (f *Format) FileName(day time.Time) string {
	return fmt.Sprintf("connect-cards-%s-%s.csv", f.ID, day.Format("2006-01-02"))
}

// Lookup resolves a format ID. Unknown IDs return an error listing the
// supported set.
func Lookup(id string) (*Format, error) {
	switch id {
	case FormatPlanningCenter:
		return PlanningCenterCSV, nil
	case FormatBreeze:
		return BreezeCSV, nil
	case FormatGeneric:
		return GenericCSV, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (supported: %s, %s, %s)",
			id, FormatPlanningCenter, FormatBreeze, FormatGeneric)
	}
}

// membershipRule maps visit-type keywords to a membership status.
// Rules are checked in order; the first keyword hit wins.
type membershipRule struct {
	status   string
	keywords []string
}

var membershipRules = []membershipRule{
	{model.MemberStatusMember, []string{"member"}},
	{model.MemberStatusRegular, []string{"regular", "attend"}},
}

// membershipStatus maps a free-form visit type to a membership status
// by ordered substring keyword matching. Default is Visitor.
func membershipStatus(visitType *string) string {
	if visitType == nil {
		return model.MemberStatusVisitor
	}
	vt := strings.ToLower(*visitType)
	for _, rule := range membershipRules {
		for _, kw := range rule.keywords {
			if strings.Contains(vt, kw) {
				return rule.status
			}
		}
	}
	return model.MemberStatusVisitor
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeVal(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
