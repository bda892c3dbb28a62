package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/leadquery"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/sirupsen/logrus"
)

// Backend is the part of the CRM client the tools use.
type Backend interface {
	ListLeads(ctx context.Context, q models.LeadQuery) (*models.LeadPage, error)
	LeadDetail(ctx context.Context, id int64) (*crm.LeadDetail, error)
	DashboardStatistics(ctx context.Context) (*models.DashboardStats, error)
}

// ListLeadsArgs defines arguments for the list_leads tool
type ListLeadsArgs struct {
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
	Page   int    `json:"page,omitempty"`
}

// GetLeadArgs defines arguments for the get_lead tool
type GetLeadArgs struct {
	LeadID int64 `json:"lead_id"`
}

// LeadSummary is one row of list_leads
type LeadSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Status        string `json:"status"`
	Source        string `json:"source"`
	Budget        string `json:"budget"`
	CreatedAt     string `json:"created_at"`
	ActivityCount int    `json:"activity_count"`
}

// LeadDetail is the get_lead result
type LeadDetail struct {
	LeadSummary
	PropertyInterest string          `json:"property_interest"`
	Active           bool            `json:"active"`
	Activities       []ActivityEntry `json:"activities"`
}

// ActivityEntry is one timeline item, newest first
type ActivityEntry struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Notes    string `json:"notes,omitempty"`
	Duration int    `json:"duration_minutes,omitempty"`
	LoggedBy string `json:"logged_by"`
}

// StartServer serves the lead tools over stdio until the client disconnects.
func StartServer(backend Backend, log logrus.FieldLogger, version string) error {
	s := NewServer(backend, log, version)
	return server.ServeStdio(s)
}

// NewServer builds the MCP server with all tools registered.
func NewServer(backend Backend, log logrus.FieldLogger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"LeadRider",
		version,
	)

	listTool := mcp.NewTool("list_leads",
		mcp.WithDescription("List active real-estate leads, newest first, 10 per page. Optionally search by name, email or phone and filter by pipeline status."),
		mcp.WithString("search",
			mcp.Description("Text to match against lead name, email or phone")),
		mcp.WithString("status",
			mcp.Description("Pipeline status: new, contacted, qualified, negotiation, closed, lost (default: all)")),
		mcp.WithNumber("page",
			mcp.Description("1-based page number (default: 1)")),
	)
	s.AddTool(listTool, makeListLeadsHandler(backend, log))

	leadTool := mcp.NewTool("get_lead",
		mcp.WithDescription("Retrieve a lead's contact details, budget, property interest and full activity timeline"),
		mcp.WithNumber("lead_id",
			mcp.Required(),
			mcp.Description("Numeric lead id")),
	)
	s.AddTool(leadTool, makeGetLeadHandler(backend, log))

	statsTool := mcp.NewTool("dashboard_statistics",
		mcp.WithDescription("Get pipeline totals: active leads, new this week, closed this month, activities logged, leads by status and recent activities"),
	)
	s.AddTool(statsTool, makeDashboardHandler(backend, log))

	return s
}

func makeListLeadsHandler(backend Backend, log logrus.FieldLogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListLeadsArgs
		argsBytes, _ := json.Marshal(request.Params.Arguments)
		if err := json.Unmarshal(argsBytes, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		status, err := models.ParseStatusFilter(args.Status)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		page := args.Page
		if page < 1 {
			page = 1
		}

		q, err := leadquery.PageQuery(page, args.Search, status)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := backend.ListLeads(ctx, q)
		if err != nil {
			log.WithError(err).Warn("mcp list_leads failed")
			return mcp.NewToolResultError(gateway.Message(err, "Failed to fetch leads")), nil
		}

		leads := make([]LeadSummary, 0, len(result.Leads))
		for _, l := range result.Leads {
			leads = append(leads, summarize(l))
		}
		payload := map[string]any{
			"page":  page,
			"leads": leads,
		}
		if result.HasTotal {
			payload["total"] = result.Total
		} else {
			payload["has_more"] = leadquery.TotalPages(page, result) > page
		}
		return jsonResult(payload)
	}
}

func makeGetLeadHandler(backend Backend, log logrus.FieldLogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetLeadArgs
		argsBytes, _ := json.Marshal(request.Params.Arguments)
		if err := json.Unmarshal(argsBytes, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.LeadID < 1 {
			return mcp.NewToolResultError("lead_id must be a positive integer"), nil
		}

		detail, err := backend.LeadDetail(ctx, args.LeadID)
		if errors.Is(err, crm.ErrLeadNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("lead %d not found", args.LeadID)), nil
		}
		if err != nil {
			log.WithError(err).Warn("mcp get_lead failed")
			return mcp.NewToolResultError(gateway.Message(err, "Failed to fetch lead data")), nil
		}

		out := LeadDetail{
			LeadSummary:      summarize(detail.Lead),
			PropertyInterest: export.PropertyInterest(detail.Lead),
			Active:           detail.Lead.IsActive,
			Activities:       make([]ActivityEntry, 0, len(detail.Activities)),
		}
		out.ActivityCount = len(detail.Activities)
		for _, a := range detail.Activities {
			entry := ActivityEntry{
				Type:     string(a.ActivityType),
				Title:    a.Title,
				Date:     a.ActivityDate.Format("2006-01-02"),
				LoggedBy: a.UserName,
			}
			if a.Notes != nil {
				entry.Notes = *a.Notes
			}
			if a.Duration != nil {
				entry.Duration = *a.Duration
			}
			out.Activities = append(out.Activities, entry)
		}
		return jsonResult(out)
	}
}

func makeDashboardHandler(backend Backend, log logrus.FieldLogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := backend.DashboardStatistics(ctx)
		if err != nil {
			log.WithError(err).Warn("mcp dashboard_statistics failed")
			return mcp.NewToolResultError(gateway.Message(err, "Failed to fetch dashboard statistics")), nil
		}
		return jsonResult(stats)
	}
}

func summarize(l models.Lead) LeadSummary {
	return LeadSummary{
		ID:            l.ID,
		Name:          l.FullName(),
		Email:         l.Email,
		Phone:         export.Phone(l),
		Status:        string(l.Status),
		Source:        l.Source,
		Budget:        export.Budget(l),
		CreatedAt:     l.CreatedAt.Format("2006-01-02"),
		ActivityCount: l.ActivityCount,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
