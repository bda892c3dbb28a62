package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// LeadStatus is a stage of the sales pipeline.
type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusContacted   LeadStatus = "contacted"
	StatusQualified   LeadStatus = "qualified"
	StatusNegotiation LeadStatus = "negotiation"
	StatusClosed      LeadStatus = "closed"
	StatusLost        LeadStatus = "lost"

	// StatusAll is a filter value only; leads never carry it.
	StatusAll LeadStatus = "All"
)

// LeadStatuses is the closed set of pipeline stages, in pipeline order.
var LeadStatuses = []LeadStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusNegotiation,
	StatusClosed,
	StatusLost,
}

// StatusFilters is LeadStatuses with StatusAll in front, the order the filter cycles in.
var StatusFilters = append([]LeadStatus{StatusAll}, LeadStatuses...)

// Valid reports whether s is a pipeline stage (StatusAll is not).
func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatusFilter accepts a pipeline stage or "all" (any case, or empty).
func ParseStatusFilter(s string) (LeadStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(StatusAll)) {
		return StatusAll, nil
	}
	st := LeadStatus(strings.ToLower(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (want one of: all, %s)", s, joinStatuses(LeadStatuses))
	}
	return st, nil
}

// NextFilter returns the filter after s in StatusFilters, wrapping around.
func NextFilter(s LeadStatus) LeadStatus {
	for i, v := range StatusFilters {
		if v == s {
			return StatusFilters[(i+1)%len(StatusFilters)]
		}
	}
	return StatusAll
}

func joinStatuses(statuses []LeadStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// Lead is a prospective client as returned by the backend.
type Lead struct {
	ID               int64      `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Status           LeadStatus `json:"status"`
	Source           string     `json:"source"`
	BudgetMin        *float64   `json:"budget_min"`
	BudgetMax        *float64   `json:"budget_max"`
	PropertyInterest *string    `json:"property_interest"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        Timestamp  `json:"created_at"`
	UpdatedAt        Timestamp  `json:"updated_at"`
	ActivityCount    int        `json:"activity_count"`
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	return joinName(l.FirstName, l.LastName)
}

// LeadInput is the body of POST /leads.
type LeadInput struct {
	FirstName        string   `json:"first_name" validate:"required"`
	LastName         string   `json:"last_name" validate:"required"`
	Email            string   `json:"email" validate:"required,email"`
	Phone            string   `json:"phone,omitempty"`
	BudgetMin        *float64 `json:"budget_min" validate:"omitempty,gt=0"`
	BudgetMax        *float64 `json:"budget_max" validate:"omitempty,gt=0"`
	PropertyInterest *string  `json:"property_interest"`
}

// Validate applies the create-lead rules.
func (in LeadInput) Validate() error {
	return validateStruct(in)
}

// LeadUpdate is the body of PUT /leads/{id}. Status and source are editable only here.
type LeadUpdate struct {
	LeadInput
	Status LeadStatus `json:"status" validate:"required,oneof=new contacted qualified negotiation closed lost"`
	Source string     `json:"source" validate:"required"`
}

// Validate applies the edit-lead rules.
func (in LeadUpdate) Validate() error {
	return validateStruct(in)
}

// UpdateFromLead prefills an edit form with the lead's current values.
func UpdateFromLead(l Lead) LeadUpdate {
	return LeadUpdate{
		LeadInput: LeadInput{
			FirstName:        l.FirstName,
			LastName:         l.LastName,
			Email:            l.Email,
			Phone:            l.Phone,
			BudgetMin:        l.BudgetMin,
			BudgetMax:        l.BudgetMax,
			PropertyInterest: l.PropertyInterest,
		},
		Status: l.Status,
		Source: l.Source,
	}
}

// LeadQuery describes one GET /leads request.
type LeadQuery struct {
	Skip   int
	Limit  int
	Search string
	Status LeadStatus
}

// Values renders the query string. Search and status are omitted when unset.
func (q LeadQuery) Values() url.Values {
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" && q.Status != StatusAll {
		v.Set("status", string(q.Status))
	}
	return v
}

// LeadPage is one page of a lead listing. Total is meaningful only when HasTotal is set.
type LeadPage struct {
	Leads    []Lead
	Total    int
	HasTotal bool
}
