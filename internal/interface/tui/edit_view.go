package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/leadrider/internal/core/dates"
	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/models"
)

func statusOptions() []string {
	opts := make([]string, len(models.LeadStatuses))
	for i, s := range models.LeadStatuses {
		opts[i] = string(s)
	}
	return opts
}

func activityTypeOptions() []string {
	opts := make([]string, len(models.ActivityTypes))
	for i, t := range models.ActivityTypes {
		opts[i] = string(t)
	}
	return opts
}

func amountText(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func textValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// openLeadForm opens the create form, or the edit form prefilled from lead.
func (m Model) openLeadForm(lead *models.Lead) (tea.Model, tea.Cmd) {
	var upd models.LeadUpdate
	title := "New lead"
	m.editingID = 0
	if lead != nil {
		upd = models.UpdateFromLead(*lead)
		title = "Edit " + lead.FullName()
		m.editingID = lead.ID
	}

	fields := []formField{
		textField("first_name", "First name", "", upd.FirstName),
		textField("last_name", "Last name", "", upd.LastName),
		textField("email", "Email", "jane@example.com", upd.Email),
		textField("phone", "Phone", "optional", upd.Phone),
		textField("budget_min", "Budget min", "e.g. 350000", amountText(upd.BudgetMin)),
		textField("budget_max", "Budget max", "e.g. 500000", amountText(upd.BudgetMax)),
		textField("property_interest", "Property interest", "optional", textValue(upd.PropertyInterest)),
	}
	if lead != nil {
		fields = append(fields,
			choiceField("status", "Status", statusOptions(), string(upd.Status)),
			textField("source", "Source", "", upd.Source),
		)
	}

	m.editor = newForm(title, fields...)
	m.prevMode = m.mode
	m.mode = leadFormView
	m.notice = ""
	return m, nil
}

// parseAmount accepts "350000", "350,000" or "$350,000". Empty means unset.
func parseAmount(s string) (*float64, error) {
	s = strings.TrimSpace(strings.NewReplacer(",", "", "$", "").Replace(s))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &v, nil
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// leadInput reads the shared fields. Unparseable budgets come back as field errors.
func (f form) leadInput() (models.LeadInput, error) {
	in := models.LeadInput{
		FirstName:        f.value("first_name"),
		LastName:         f.value("last_name"),
		Email:            f.value("email"),
		Phone:            f.value("phone"),
		PropertyInterest: optionalText(f.value("property_interest")),
	}

	verr := &models.ValidationError{}
	var err error
	if in.BudgetMin, err = parseAmount(f.value("budget_min")); err != nil {
		verr.Fields = append(verr.Fields, models.FieldError{Field: "budget_min", Message: "Budget min must be a number"})
	}
	if in.BudgetMax, err = parseAmount(f.value("budget_max")); err != nil {
		verr.Fields = append(verr.Fields, models.FieldError{Field: "budget_max", Message: "Budget max must be a number"})
	}
	if len(verr.Fields) > 0 {
		return in, verr
	}
	return in, nil
}

func saveMessage(err error) string {
	return gateway.Message(err, "Failed to save lead")
}

func (m Model) updateLeadForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" && !m.editor.submitting {
		m.mode = m.prevMode
		return m, nil
	}

	var cmd tea.Cmd
	var submit bool
	m.editor, cmd, submit = m.editor.update(msg)
	if !submit {
		return m, cmd
	}

	m.editor.clearErrors()
	in, err := m.editor.leadInput()
	if err != nil {
		m.editor.setError(err, saveMessage)
		return m, nil
	}

	if m.editingID == 0 {
		if err := in.Validate(); err != nil {
			m.editor.setError(err, saveMessage)
			return m, nil
		}
		m.editor.submitting = true
		return m, createLead(m.ctx, m.backend, in)
	}

	upd := models.LeadUpdate{
		LeadInput: in,
		Status:    models.LeadStatus(m.editor.value("status")),
		Source:    m.editor.value("source"),
	}
	if err := upd.Validate(); err != nil {
		m.editor.setError(err, saveMessage)
		return m, nil
	}
	m.editor.submitting = true
	return m, updateLead(m.ctx, m.backend, m.editingID, upd)
}

func (m Model) handleLeadSaved(msg leadSavedMsg) (tea.Model, tea.Cmd) {
	if m.mode != leadFormView {
		return m, nil
	}
	if msg.err != nil {
		m.editor.setError(msg.err, saveMessage)
		return m, nil
	}

	m.editor.submitting = false
	if msg.created {
		m.notice = "Lead created"
	} else {
		m.notice = "Lead updated"
	}
	nm, cmd := m.goDetail(msg.lead.ID)
	nm.notice = m.notice
	return nm, cmd
}

// openActivityForm defaults to a call logged today.
func (m Model) openActivityForm() (tea.Model, tea.Cmd) {
	m.activityForm = newForm("Add activity for "+m.detail.Lead.FullName(),
		choiceField("activity_type", "Type", activityTypeOptions(), string(models.ActivityCall)),
		textField("title", "Title", "e.g. Intro call", ""),
		textField("notes", "Notes", "optional", ""),
		textField("activity_date", "Date", "YYYY-MM-DD, today, last friday", dates.Today(m.now())),
		textField("duration", "Duration (min)", "calls only", ""),
	)
	m.mode = activityFormView
	m.notice = ""
	return m, nil
}

func activityMessage(err error) string {
	return gateway.Message(err, "Failed to add activity")
}

func (m Model) updateActivityForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" && !m.activityForm.submitting {
		m.mode = detailView
		return m, nil
	}

	var cmd tea.Cmd
	var submit bool
	m.activityForm, cmd, submit = m.activityForm.update(msg)
	if !submit {
		return m, cmd
	}

	m.activityForm.clearErrors()
	f := m.activityForm
	in := models.ActivityInput{
		ActivityType: models.ActivityType(f.value("activity_type")),
		Title:        f.value("title"),
		Notes:        optionalText(f.value("notes")),
	}

	verr := &models.ValidationError{}
	if raw := f.value("activity_date"); raw != "" {
		day, err := dates.Normalize(raw, m.now())
		if err != nil {
			verr.Fields = append(verr.Fields, models.FieldError{Field: "activity_date", Message: "Date not recognised"})
		}
		in.ActivityDate = day
	}
	if raw := f.value("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Fields = append(verr.Fields, models.FieldError{Field: "duration", Message: "Duration must be whole minutes"})
		} else {
			in.Duration = &n
		}
	}
	if len(verr.Fields) > 0 {
		m.activityForm.setError(verr, activityMessage)
		return m, nil
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		m.activityForm.setError(err, activityMessage)
		return m, nil
	}
	m.activityForm.submitting = true
	return m, createActivity(m.ctx, m.backend, m.detailID, in)
}

func (m Model) handleActivitySaved(msg activitySavedMsg) (tea.Model, tea.Cmd) {
	if m.mode != activityFormView || msg.leadID != m.detailID {
		return m, nil
	}
	if msg.err != nil {
		m.activityForm.setError(msg.err, activityMessage)
		return m, nil
	}
	m.activityForm.submitting = false
	nm, cmd := m.goDetail(m.detailID)
	nm.notice = "Activity added"
	return nm, cmd
}
