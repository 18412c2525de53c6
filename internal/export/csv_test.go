package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parishkit/chms-api/internal/model"
)

func TestEscapeField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"comma", "a,b", `"a,b"`},
		{"quote", `say "hi"`, `"say ""hi"""`},
		{"newline", "line1\nline2", "\"line1\nline2\""},
		{"carriage return", "a\rb", "\"a\rb\""},
		{"apostrophe unquoted", "O'Brien", "O'Brien"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeField(tt.in))
		})
	}
}

func TestGenerateCSV_QuotedNameScenario(t *testing.T) {
	email := "sean@test.com"
	card := &model.ConnectCard{Name: "O'Brien, Sean", Email: &email, Status: model.CardStatusReviewed}

	out := GenerateCSV([]*model.ConnectCard{card}, GenericCSV)
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"O'Brien, Sean"`, "comma inside name forces quoting")
	assert.Contains(t, lines[1], ",sean@test.com,", "email stays unquoted")
}

func TestGenerateCSV_NoTrailingNewline(t *testing.T) {
	out := GenerateCSV(nil, BreezeCSV)
	assert.False(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, strings.Join(BreezeCSV.Headers(), ","), out)
}

func TestGenerateCSV_Deterministic(t *testing.T) {
	cards := []*model.ConnectCard{
		{Name: "Alice Allen"},
		{Name: "Bob Baker"},
	}
	a := GenerateCSV(cards, PlanningCenterCSV)
	b := GenerateCSV(cards, PlanningCenterCSV)
	assert.Equal(t, a, b)

	// Input order is preserved, never sorted.
	lines := strings.Split(a, "\n")
	assert.Contains(t, lines[1], "Alice")
	assert.Contains(t, lines[2], "Bob")
}
