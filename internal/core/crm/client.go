// Package crm binds the CRM backend endpoints to typed calls over the gateway.
package crm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/models"
	"golang.org/x/sync/errgroup"
)

// ErrLeadNotFound means the lead id does not exist on the backend.
var ErrLeadNotFound = errors.New("lead not found")

// TotalCountHeader carries the number of leads matching a listing, when the backend sends it.
const TotalCountHeader = "X-Total-Count"

// Token is the body of POST /users/login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Client is the typed CRM API.
type Client struct {
	gw *gateway.Client
}

// New wraps a configured gateway.
func New(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var tok Token
	_, err := c.gw.Send(ctx, gateway.Request{
		Method:    "POST",
		Path:      "/users/login",
		Form:      form,
		Anonymous: true,
	}, &tok)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("login response carried no access token")
	}
	return tok.AccessToken, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	var user models.User
	_, err := c.gw.Send(ctx, gateway.Request{
		Method:    "POST",
		Path:      "/users/register",
		Body:      reg,
		Anonymous: true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the profile behind the session token.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.gw.Get(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListLeads returns one page of active leads.
func (c *Client) ListLeads(ctx context.Context, q models.LeadQuery) (*models.LeadPage, error) {
	var leads []models.Lead
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method: "GET",
		Path:   "/leads",
		Query:  q.Values(),
	}, &leads)
	if err != nil {
		return nil, err
	}

	page := &models.LeadPage{Leads: leads}
	if v := resp.Header.Get(TotalCountHeader); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page.Total = n
			page.HasTotal = true
		}
	}
	return page, nil
}

// GetLead fetches one lead. Soft-deleted leads may still be returned with IsActive false.
func (c *Client) GetLead(ctx context.Context, id int64) (*models.Lead, error) {
	var lead models.Lead
	if err := c.gw.Get(ctx, leadPath(id), nil, &lead); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("lead %d: %w", id, ErrLeadNotFound)
		}
		return nil, err
	}
	return &lead, nil
}

// CreateLead validates in and posts it.
func (c *Client) CreateLead(ctx context.Context, in models.LeadInput) (*models.Lead, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var lead models.Lead
	if err := c.gw.Post(ctx, "/leads", in, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// UpdateLead validates in and replaces the lead's editable fields.
func (c *Client) UpdateLead(ctx context.Context, id int64, in models.LeadUpdate) (*models.Lead, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var lead models.Lead
	if err := c.gw.Put(ctx, leadPath(id), in, &lead); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("lead %d: %w", id, ErrLeadNotFound)
		}
		return nil, err
	}
	return &lead, nil
}

// DeleteLead soft-deletes the lead: the backend marks it inactive.
func (c *Client) DeleteLead(ctx context.Context, id int64) error {
	if err := c.gw.Delete(ctx, leadPath(id), nil); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return fmt.Errorf("lead %d: %w", id, ErrLeadNotFound)
		}
		return err
	}
	return nil
}

// ListActivities returns the lead's activities, newest first by creation time.
func (c *Client) ListActivities(ctx context.Context, leadID int64) ([]models.Activity, error) {
	var activities []models.Activity
	if err := c.gw.Get(ctx, leadPath(leadID)+"/activities", nil, &activities); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("lead %d: %w", leadID, ErrLeadNotFound)
		}
		return nil, err
	}
	SortNewestFirst(activities)
	return activities, nil
}

// CreateActivity validates in, drops a non-call duration and posts it.
func (c *Client) CreateActivity(ctx context.Context, leadID int64, in models.ActivityInput) (*models.Activity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var activity models.Activity
	if err := c.gw.Post(ctx, leadPath(leadID)+"/activities", in.Normalize(), &activity); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("lead %d: %w", leadID, ErrLeadNotFound)
		}
		return nil, err
	}
	return &activity, nil
}

// DashboardStatistics returns the server-computed dashboard numbers.
func (c *Client) DashboardStatistics(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.gw.Get(ctx, "/dashboard/statistics", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// LeadDetail is a lead with its activity timeline.
type LeadDetail struct {
	Lead       models.Lead
	Activities []models.Activity
}

// LeadDetail fetches the lead and its activities concurrently. If either call
// fails the whole detail fails.
func (c *Client) LeadDetail(ctx context.Context, id int64) (*LeadDetail, error) {
	g, gctx := errgroup.WithContext(ctx)

	var lead *models.Lead
	var activities []models.Activity
	g.Go(func() error {
		var err error
		lead, err = c.GetLead(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = c.ListActivities(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &LeadDetail{Lead: *lead, Activities: activities}, nil
}

// SortNewestFirst orders activities by created_at descending, ties by id descending.
func SortNewestFirst(activities []models.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		a, b := activities[i].CreatedAt.Time, activities[j].CreatedAt.Time
		if !a.Equal(b) {
			return a.After(b)
		}
		return activities[i].ID > activities[j].ID
	})
}

func leadPath(id int64) string {
	return "/leads/" + strconv.FormatInt(id, 10)
}
