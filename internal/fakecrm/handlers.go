package fakecrm

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neilberkman/leadrider/internal/core/models"
	"golang.org/x/crypto/bcrypt"
)

const recentActivityLimit = 5

func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	s.mu.Lock()
	a, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		abortDetail(c, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := s.IssueToken(username)
	if err != nil {
		abortDetail(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) register(c *gin.Context) {
	var reg models.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := reg.Validate(); err != nil {
		validationDetail(c, err)
		return
	}

	user, err := s.AddUser(reg)
	if err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) listLeads(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		abortDetail(c, http.StatusUnprocessableEntity, "skip must be a non-negative integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		abortDetail(c, http.StatusUnprocessableEntity, "limit must be a positive integer")
		return
	}
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	status := models.LeadStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		abortDetail(c, http.StatusUnprocessableEntity, "unknown status "+string(status))
		return
	}

	s.mu.Lock()
	var matched []models.Lead
	// Newest first.
	for i := len(s.leads) - 1; i >= 0; i-- {
		l := s.leads[i]
		if !l.IsActive {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		if search != "" && !matchesSearch(l, search) {
			continue
		}
		matched = append(matched, s.withCountLocked(l))
	}
	s.mu.Unlock()

	c.Header("X-Total-Count", strconv.Itoa(len(matched)))
	page := []models.Lead{}
	if skip < len(matched) {
		end := min(skip+limit, len(matched))
		page = matched[skip:end]
	}
	c.JSON(http.StatusOK, page)
}

func matchesSearch(l *models.Lead, needle string) bool {
	for _, field := range []string{l.FirstName, l.LastName, l.Email, l.Phone} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *Server) createLead(c *gin.Context) {
	var in models.LeadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		validationDetail(c, err)
		return
	}

	now := models.Timestamp{Time: s.now().UTC()}
	s.mu.Lock()
	s.nextID++
	lead := &models.Lead{
		ID:               s.nextID,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            in.Email,
		Phone:            in.Phone,
		Status:           models.StatusNew,
		Source:           "website",
		BudgetMin:        in.BudgetMin,
		BudgetMax:        in.BudgetMax,
		PropertyInterest: in.PropertyInterest,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.leads = append(s.leads, lead)
	out := *lead
	s.mu.Unlock()

	c.JSON(http.StatusCreated, out)
}

// findLead looks up any lead, active or not. Soft-deleted leads stay reachable by id.
func (s *Server) findLead(c *gin.Context) (*models.Lead, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "lead id must be an integer")
		return nil, false
	}
	for _, l := range s.leads {
		if l.ID == id {
			return l, true
		}
	}
	abortDetail(c, http.StatusNotFound, "Lead not found")
	return nil, false
}

func (s *Server) getLead(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.findLead(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.withCountLocked(lead))
}

func (s *Server) updateLead(c *gin.Context) {
	var in models.LeadUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		validationDetail(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.findLead(c)
	if !ok {
		return
	}
	lead.FirstName = in.FirstName
	lead.LastName = in.LastName
	lead.Email = in.Email
	lead.Phone = in.Phone
	lead.BudgetMin = in.BudgetMin
	lead.BudgetMax = in.BudgetMax
	lead.PropertyInterest = in.PropertyInterest
	lead.Status = in.Status
	lead.Source = in.Source
	lead.UpdatedAt = models.Timestamp{Time: s.now().UTC()}
	c.JSON(http.StatusOK, s.withCountLocked(lead))
}

func (s *Server) deleteLead(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.findLead(c)
	if !ok {
		return
	}
	lead.IsActive = false
	lead.UpdatedAt = models.Timestamp{Time: s.now().UTC()}
	c.JSON(http.StatusOK, gin.H{"message": "Lead deleted successfully"})
}

func (s *Server) listActivities(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.findLead(c)
	if !ok {
		return
	}
	out := []models.Activity{}
	for _, a := range s.activities {
		if a.LeadID == lead.ID {
			out = append(out, *a)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createActivity(c *gin.Context) {
	var in models.ActivityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		validationDetail(c, err)
		return
	}
	date, err := time.Parse(time.DateOnly, in.ActivityDate)
	if err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "activity_date must be YYYY-MM-DD")
		return
	}
	in = in.Normalize()
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.findLead(c)
	if !ok {
		return
	}
	s.nextID++
	a := &models.Activity{
		ID:           s.nextID,
		LeadID:       lead.ID,
		UserID:       user.ID,
		ActivityType: in.ActivityType,
		Title:        in.Title,
		Notes:        in.Notes,
		Duration:     in.Duration,
		ActivityDate: models.Timestamp{Time: date},
		CreatedAt:    models.Timestamp{Time: s.now().UTC()},
		UserName:     user.DisplayName(),
	}
	s.activities = append(s.activities, a)
	c.JSON(http.StatusCreated, *a)
}

func (s *Server) statistics(c *gin.Context) {
	now := s.now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.DashboardStats{
		LeadsByStatus:    []models.StatusCount{},
		RecentActivities: []models.RecentActivity{},
	}
	byStatus := make(map[models.LeadStatus]int)
	names := make(map[int64]*models.Lead)
	for _, l := range s.leads {
		names[l.ID] = l
		if !l.IsActive {
			continue
		}
		stats.TotalLeads++
		byStatus[l.Status]++
		if !l.CreatedAt.Before(weekAgo) {
			stats.NewLeadsThisWeek++
		}
		if l.Status == models.StatusClosed && !l.UpdatedAt.Before(monthStart) {
			stats.ClosedLeadsThisMonth++
		}
	}
	for _, st := range models.LeadStatuses {
		if n := byStatus[st]; n > 0 {
			stats.LeadsByStatus = append(stats.LeadsByStatus, models.StatusCount{Status: string(st), Count: n})
		}
	}

	stats.TotalActivities = len(s.activities)
	recent := make([]*models.Activity, len(s.activities))
	copy(recent, s.activities)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt.Time)
	})
	for _, a := range recent[:min(recentActivityLimit, len(recent))] {
		ra := models.RecentActivity{
			ID:           a.ID,
			LeadID:       a.LeadID,
			ActivityType: a.ActivityType,
			Title:        a.Title,
			ActivityDate: a.ActivityDate,
			UserName:     a.UserName,
		}
		if l, ok := names[a.LeadID]; ok {
			ra.LeadFirstName = l.FirstName
			ra.LeadLastName = l.LastName
		}
		stats.RecentActivities = append(stats.RecentActivities, ra)
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) withCountLocked(l *models.Lead) models.Lead {
	out := *l
	out.ActivityCount = 0
	for _, a := range s.activities {
		if a.LeadID == l.ID {
			out.ActivityCount++
		}
	}
	return out
}
