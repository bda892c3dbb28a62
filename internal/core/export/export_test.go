package export

import (
	"strings"
	"testing"
	"time"

	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/models"
)

func ptr[T any](v T) *T { return &v }

func TestBudget(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
		want     string
	}{
		{"both", ptr(350000.0), ptr(500000.0), "$350,000 - $500,000"},
		{"no min", nil, ptr(750000.0), "$? - $750,000"},
		{"no max", ptr(200000.0), nil, "$200,000 - $?"},
		{"neither", nil, nil, "$? - $?"},
		{"cents", ptr(1234.5), nil, "$1,234.5 - $?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Budget(models.Lead{BudgetMin: tt.min, BudgetMax: tt.max})
			if got != tt.want {
				t.Errorf("Budget() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	var l models.Lead
	if Phone(l) != "N/A" {
		t.Errorf("Phone() = %q", Phone(l))
	}
	if PropertyInterest(l) != "No specific property interest" {
		t.Errorf("PropertyInterest() = %q", PropertyInterest(l))
	}
	if StatValue(7) != "07" || StatValue(123) != "123" {
		t.Errorf("StatValue() = %q, %q", StatValue(7), StatValue(123))
	}
	if got := RecentLeadName(models.RecentActivity{LeadFirstName: "Jane"}); got != "Jane Lead" {
		t.Errorf("RecentLeadName() = %q", got)
	}
	if got := ActivityIcon("fax"); got != "🔔" {
		t.Errorf("ActivityIcon(fax) = %q", got)
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	notes := "Wants a yard"
	duration := 20
	d := &crm.LeadDetail{
		Lead: models.Lead{
			ID: 7, FirstName: "Jane", LastName: "Doe", Email: "jane@x.com",
			Status: models.StatusQualified, Source: "referral",
			BudgetMin: ptr(300000.0),
			CreatedAt: models.Timestamp{Time: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		},
		Activities: []models.Activity{{
			ActivityType: models.ActivityCall, Title: "Intro call", Notes: &notes, Duration: &duration,
			ActivityDate: models.Timestamp{Time: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)},
			UserName:     "Ada Agent",
		}},
	}

	tmpl := "{{full_name}} <{{email}}> {{phone}} {{budget}}\n{{#activities}}{{icon}} {{title}}{{#duration}} {{duration}}m{{/duration}} by {{user_name}}: {{notes}}{{/activities}}"
	out, err := Render(tmpl, d)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "Jane Doe <jane@x.com> N/A $300,000 - $?\n📞 Intro call 20m by Ada Agent: Wants a yard"
	if out != want {
		t.Errorf("Render() = %q, want %q", out, want)
	}
}

func TestRenderNoActivities(t *testing.T) {
	out, err := Render(defaultTemplate(t), &crm.LeadDetail{Lead: models.Lead{FirstName: "Solo"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No activities yet.") {
		t.Errorf("missing empty-state line:\n%s", out)
	}
}

func TestRenderBadTemplate(t *testing.T) {
	if _, err := Render("{{#open}}", &crm.LeadDetail{}); err == nil {
		t.Error("Render() error = nil for unclosed section")
	}
}

func defaultTemplate(t *testing.T) string {
	t.Helper()
	return "# {{first_name}}\n{{#activities}}- {{title}}\n{{/activities}}{{^activities}}No activities yet.\n{{/activities}}"
}
