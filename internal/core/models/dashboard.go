package models

// StatusCount is one bar of the leads-by-status chart.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// RecentActivity is an activity as listed on the dashboard, with lead names for context.
type RecentActivity struct {
	ID            int64        `json:"id"`
	LeadID        int64        `json:"lead_id"`
	LeadFirstName string       `json:"lead_first_name,omitempty"`
	LeadLastName  string       `json:"lead_last_name,omitempty"`
	ActivityType  ActivityType `json:"activity_type"`
	Title         string       `json:"title"`
	ActivityDate  Timestamp    `json:"activity_date"`
	UserName      string       `json:"user_name"`
}

// LeadName is the lead's full name when the backend supplied it.
func (a RecentActivity) LeadName() string {
	return joinName(a.LeadFirstName, a.LeadLastName)
}

// DashboardStats is the body of GET /dashboard/statistics. All numbers are server-computed.
type DashboardStats struct {
	TotalLeads           int              `json:"total_leads"`
	NewLeadsThisWeek     int              `json:"new_leads_this_week"`
	ClosedLeadsThisMonth int              `json:"closed_leads_this_month"`
	TotalActivities      int              `json:"total_activities"`
	LeadsByStatus        []StatusCount    `json:"leads_by_status"`
	RecentActivities     []RecentActivity `json:"recent_activities"`
}
