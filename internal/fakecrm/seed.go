package fakecrm

import (
	"fmt"

	"github.com/neilberkman/leadrider/internal/core/models"
)

// Demo account created by Seed.
const (
	DemoUsername = "demo"
	DemoPassword = "demo1234"
)

type seedLead struct {
	first, last, email, phone string
	status                    models.LeadStatus
	source                    string
	min, max                  float64
	interest                  string
	ageDays                   int
}

var seedLeads = []seedLead{
	{"Jane", "Doe", "jane@example.com", "555-0101", models.StatusNew, "website", 350000, 500000, "3BR near downtown", 1},
	{"John", "Smith", "john.smith@example.com", "", models.StatusContacted, "referral", 0, 750000, "", 3},
	{"Maria", "Garcia", "maria@example.com", "555-0143", models.StatusQualified, "open house", 200000, 0, "Condo with parking", 9},
	{"Wei", "Chen", "wei.chen@example.com", "555-0188", models.StatusNegotiation, "zillow", 600000, 900000, "Waterfront", 14},
	{"Amara", "Okafor", "amara@example.com", "555-0112", models.StatusClosed, "referral", 450000, 520000, "", 20},
	{"Lucas", "Martin", "lucas@example.com", "", models.StatusLost, "website", 0, 0, "", 30},
}

// Seed adds the demo account, a handful of leads and one activity per lead.
func (s *Server) Seed() error {
	owner, err := s.AddUser(models.Registration{
		Username:  DemoUsername,
		Email:     "demo@example.com",
		FirstName: "Demo",
		LastName:  "Agent",
		Password:  DemoPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range seedLeads {
		created := models.Timestamp{Time: now.AddDate(0, 0, -sl.ageDays)}
		s.nextID++
		lead := &models.Lead{
			ID:        s.nextID,
			FirstName: sl.first,
			LastName:  sl.last,
			Email:     sl.email,
			Phone:     sl.phone,
			Status:    sl.status,
			Source:    sl.source,
			IsActive:  true,
			CreatedAt: created,
			UpdatedAt: models.Timestamp{Time: now},
		}
		if sl.min > 0 {
			v := sl.min
			lead.BudgetMin = &v
		}
		if sl.max > 0 {
			v := sl.max
			lead.BudgetMax = &v
		}
		if sl.interest != "" {
			v := sl.interest
			lead.PropertyInterest = &v
		}
		s.leads = append(s.leads, lead)

		s.nextID++
		s.activities = append(s.activities, &models.Activity{
			ID:           s.nextID,
			LeadID:       lead.ID,
			UserID:       owner.ID,
			ActivityType: models.ActivityNote,
			Title:        "Lead created from " + sl.source,
			ActivityDate: created,
			CreatedAt:    created,
			UserName:     owner.DisplayName(),
		})
	}
	return nil
}
