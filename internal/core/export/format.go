// Package export formats leads for people: the detail card fields shared by
// the TUI, CLI and MCP tools, and the mustache lead export.
package export

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/leadrider/internal/core/models"
)

const (
	NotAvailable     = "N/A"
	NoInterest       = "No specific property interest"
	UnknownLeadName  = "Unknown Lead"
	dateLayout       = "Jan 2, 2006"
	budgetUnknownEnd = "?"
)

// Budget renders "$350,000 - $500,000", with "?" for a missing end.
func Budget(l models.Lead) string {
	return fmt.Sprintf("$%s - $%s", money(l.BudgetMin), money(l.BudgetMax))
}

func money(v *float64) string {
	if v == nil || *v == 0 {
		return budgetUnknownEnd
	}
	if *v == math.Trunc(*v) {
		return humanize.Comma(int64(*v))
	}
	return humanize.CommafWithDigits(*v, 2)
}

// Phone returns the phone number or N/A.
func Phone(l models.Lead) string {
	if l.Phone == "" {
		return NotAvailable
	}
	return l.Phone
}

// PropertyInterest returns the interest or a placeholder.
func PropertyInterest(l models.Lead) string {
	if l.PropertyInterest == nil || *l.PropertyInterest == "" {
		return NoInterest
	}
	return *l.PropertyInterest
}

// ActivityIcon maps an activity type to its timeline glyph.
func ActivityIcon(t models.ActivityType) string {
	switch t {
	case models.ActivityCall:
		return "📞"
	case models.ActivityEmail:
		return "✉️"
	case models.ActivityMeeting:
		return "🤝"
	case models.ActivityNote:
		return "📝"
	default:
		return "🔔"
	}
}

// Date renders a calendar date, or N/A for a missing one.
func Date(ts models.Timestamp) string {
	if ts.IsZero() {
		return NotAvailable
	}
	return ts.Local().Format(dateLayout)
}

// Relative renders "3 days ago" style times.
func Relative(ts models.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return NotAvailable
	}
	return humanize.RelTime(ts.Time, now, "ago", "from now")
}

// StatValue zero-pads dashboard numbers to two digits.
func StatValue(n int) string {
	return fmt.Sprintf("%02d", n)
}

// RecentLeadName names the lead of a dashboard activity.
func RecentLeadName(a models.RecentActivity) string {
	first, last := a.LeadFirstName, a.LeadLastName
	if first == "" && last == "" {
		return UnknownLeadName
	}
	if first == "" {
		first = "Unknown"
	}
	if last == "" {
		last = "Lead"
	}
	return first + " " + last
}

// Duration renders a call duration in minutes, or "" when absent.
func Duration(a models.Activity) string {
	if a.Duration == nil {
		return ""
	}
	return fmt.Sprintf("%d min", *a.Duration)
}
