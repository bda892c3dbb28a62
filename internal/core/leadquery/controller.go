// Package leadquery turns the leads screen inputs (search text, status filter, page)
// into one debounced listing request and holds the page it returned.
package leadquery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/models"
)

const (
	// PageSize is the fixed number of leads per page.
	PageSize = 10
	// DebounceDelay is how long search text must be idle before it is sent.
	DebounceDelay = 500 * time.Millisecond
	// MaxPage keeps the skip offset well inside int range.
	MaxPage = 1_000_000

	fetchFailed = "Failed to fetch leads"
)

// ErrStale is returned by Fetch when a newer fetch was issued before this one returned.
// The stale result is dropped.
var ErrStale = errors.New("leadquery: superseded by a newer request")

// Lister is the leads listing endpoint.
type Lister interface {
	ListLeads(ctx context.Context, q models.LeadQuery) (*models.LeadPage, error)
}

// Snapshot is a read-only view of the controller for rendering.
type Snapshot struct {
	SearchText          string
	DebouncedSearchText string
	Status              models.LeadStatus
	Page                int
	TotalPages          int
	Leads               []models.Lead
	Total               int
	HasTotal            bool
	Loading             bool
	Err                 string
}

// SearchPending reports whether typed text has not been sent yet.
func (s Snapshot) SearchPending() bool {
	return s.SearchText != s.DebouncedSearchText
}

// Controller owns the query state. It is safe for concurrent use.
type Controller struct {
	lister Lister
	delay  time.Duration

	mu         sync.Mutex
	searchText string
	debounced  string
	status     models.LeadStatus
	page       int
	totalPages int

	leads    []models.Lead
	total    int
	hasTotal bool
	loading  bool
	errMsg   string

	// issued is the descriptor of the latest Fetch; nil before the first.
	issued *models.LeadQuery
	seq    uint64

	timer    *time.Timer
	timerGen uint64
	closed   bool

	changes chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides DebounceDelay.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// NewController starts on page 1 with no search and the All filter.
func NewController(lister Lister, opts ...Option) *Controller {
	c := &Controller{
		lister:     lister,
		delay:      DebounceDelay,
		status:     models.StatusAll,
		page:       1,
		totalPages: 1,
		changes:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Changes signals that the request descriptor moved away from the last fetched one
// and Fetch should be called. Signals coalesce.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// SetSearchText records typed text immediately and resets the page. The text is
// only sent after it has been idle for the debounce delay.
func (c *Controller) SetSearchText(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || s == c.searchText {
		return
	}
	c.searchText = s
	c.page = 1

	c.timerGen++
	gen := c.timerGen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, func() { c.settle(gen) })
}

// settle runs when the debounce timer fires. A fire that raced with a newer
// keystroke sees a different gen and does nothing.
func (c *Controller) settle(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.debounced = c.searchText
	dirty := c.dirtyLocked()
	c.mu.Unlock()

	if dirty {
		c.notify()
	}
}

// FlushSearch sends pending search text now instead of waiting out the delay.
func (c *Controller) FlushSearch() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerGen++
	c.debounced = c.searchText
	dirty := !c.closed && c.dirtyLocked()
	c.mu.Unlock()

	if dirty {
		c.notify()
	}
}

// SetStatus changes the filter and resets the page. It returns false for an
// unknown status or when nothing changed.
func (c *Controller) SetStatus(s models.LeadStatus) bool {
	if s != models.StatusAll && !s.Valid() {
		return false
	}

	c.mu.Lock()
	if c.closed || s == c.status {
		c.mu.Unlock()
		return false
	}
	c.status = s
	c.page = 1
	dirty := c.dirtyLocked()
	c.mu.Unlock()

	if dirty {
		c.notify()
	}
	return true
}

// CycleStatus moves to the next status filter.
func (c *Controller) CycleStatus() models.LeadStatus {
	c.mu.Lock()
	next := models.NextFilter(c.status)
	c.mu.Unlock()
	c.SetStatus(next)
	return next
}

// SetPage moves to page p. Pages outside [1, TotalPages] are ignored.
func (c *Controller) SetPage(p int) bool {
	c.mu.Lock()
	if c.closed || p < 1 || p > c.totalPages || p == c.page {
		c.mu.Unlock()
		return false
	}
	c.page = p
	c.mu.Unlock()

	c.notify()
	return true
}

// NextPage is SetPage(page+1).
func (c *Controller) NextPage() bool {
	return c.SetPage(c.Page() + 1)
}

// PrevPage is SetPage(page-1).
func (c *Controller) PrevPage() bool {
	return c.SetPage(c.Page() - 1)
}

// Page returns the current 1-based page.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Query returns the request descriptor for the current state.
func (c *Controller) Query() models.LeadQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *Controller) queryLocked() models.LeadQuery {
	return pageQuery(c.page, c.debounced, c.status)
}

func pageQuery(page int, search string, status models.LeadStatus) models.LeadQuery {
	return models.LeadQuery{
		Skip:   (page - 1) * PageSize,
		Limit:  PageSize,
		Search: search,
		Status: status,
	}
}

// PageQuery builds the descriptor for a one-off listing of page, for callers
// that do not hold a Controller.
func PageQuery(page int, search string, status models.LeadStatus) (models.LeadQuery, error) {
	if page < 1 || page > MaxPage {
		return models.LeadQuery{}, fmt.Errorf("page must be between 1 and %d", MaxPage)
	}
	return pageQuery(page, search, status), nil
}

// TotalPages is the page count implied by p, fetched as page number page.
func TotalPages(page int, p *models.LeadPage) int {
	return totalPages(page, len(p.Leads), p.Total, p.HasTotal)
}

func (c *Controller) dirtyLocked() bool {
	return c.issued == nil || *c.issued != c.queryLocked()
}

// Fetch issues the current descriptor. On success the page replaces the held
// rows; on failure the rows are kept and the error message recorded. A result
// that returns after a newer Fetch was issued is dropped with ErrStale.
func (c *Controller) Fetch(ctx context.Context) error {
	c.mu.Lock()
	q := c.queryLocked()
	c.issued = &q
	c.seq++
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	page, err := c.lister.ListLeads(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrStale
	}
	c.loading = false
	if err != nil {
		c.errMsg = gateway.Message(err, fetchFailed)
		return err
	}

	c.errMsg = ""
	c.leads = append([]models.Lead(nil), page.Leads...)
	c.total = page.Total
	c.hasTotal = page.HasTotal
	c.totalPages = totalPages(c.page, len(page.Leads), page.Total, page.HasTotal)
	return nil
}

// totalPages uses the server's total when it sent one. Otherwise a full page
// means there may be another one after it.
func totalPages(page, n, total int, hasTotal bool) int {
	if hasTotal {
		if total <= 0 {
			return 1
		}
		return (total + PageSize - 1) / PageSize
	}
	if n >= PageSize {
		return page + 1
	}
	if page < 1 {
		return 1
	}
	return page
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SearchText:          c.searchText,
		DebouncedSearchText: c.debounced,
		Status:              c.status,
		Page:                c.page,
		TotalPages:          c.totalPages,
		Leads:               append([]models.Lead(nil), c.leads...),
		Total:               c.total,
		HasTotal:            c.hasTotal,
		Loading:             c.loading,
		Err:                 c.errMsg,
	}
}

// Reset returns the controller to its initial state and drops held rows.
// A Fetch still in flight is treated as stale.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerGen++
	c.seq++
	c.searchText = ""
	c.debounced = ""
	c.status = models.StatusAll
	c.page = 1
	c.totalPages = 1
	c.leads = nil
	c.total = 0
	c.hasTotal = false
	c.loading = false
	c.errMsg = ""
	c.issued = nil
}

// Close stops the debounce timer. Further input is ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
