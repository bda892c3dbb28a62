package export

import (
	"fmt"

	"github.com/cbroglie/mustache"
	"github.com/neilberkman/leadrider/internal/core/crm"
)

// Render fills tmpl with the lead and its timeline.
func Render(tmpl string, d *crm.LeadDetail) (string, error) {
	out, err := mustache.Render(tmpl, templateData(d))
	if err != nil {
		return "", fmt.Errorf("failed to render lead template: %w", err)
	}
	return out, nil
}

func templateData(d *crm.LeadDetail) map[string]any {
	l := d.Lead
	activities := make([]map[string]any, 0, len(d.Activities))
	for _, a := range d.Activities {
		entry := map[string]any{
			"icon":          ActivityIcon(a.ActivityType),
			"title":         a.Title,
			"activity_type": string(a.ActivityType),
			"date":          Date(a.ActivityDate),
			"user_name":     a.UserName,
		}
		if a.Duration != nil {
			entry["duration"] = *a.Duration
		}
		if a.Notes != nil && *a.Notes != "" {
			entry["notes"] = *a.Notes
		}
		activities = append(activities, entry)
	}

	return map[string]any{
		"id":                l.ID,
		"first_name":        l.FirstName,
		"last_name":         l.LastName,
		"full_name":         l.FullName(),
		"email":             l.Email,
		"phone":             Phone(l),
		"status":            string(l.Status),
		"source":            l.Source,
		"budget":            Budget(l),
		"property_interest": PropertyInterest(l),
		"created":           Date(l.CreatedAt),
		"is_active":         l.IsActive,
		"activity_count":    len(d.Activities),
		"activities":        activities,
	}
}
