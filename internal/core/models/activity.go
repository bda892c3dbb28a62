package models

// ActivityType is the kind of interaction logged against a lead.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
)

// ActivityTypes is the closed set of activity kinds.
var ActivityTypes = []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote}

// Valid reports whether t is a known activity kind.
func (t ActivityType) Valid() bool {
	for _, v := range ActivityTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Activity is a timestamped interaction attached to a lead.
type Activity struct {
	ID           int64        `json:"id"`
	LeadID       int64        `json:"lead_id"`
	UserID       int64        `json:"user_id"`
	ActivityType ActivityType `json:"activity_type"`
	Title        string       `json:"title"`
	Notes        *string      `json:"notes"`
	Duration     *int         `json:"duration"`
	ActivityDate Timestamp    `json:"activity_date"`
	CreatedAt    Timestamp    `json:"created_at"`
	UserName     string       `json:"user_name"`
}

// ActivityInput is the body of POST /leads/{id}/activities.
type ActivityInput struct {
	ActivityType ActivityType `json:"activity_type" validate:"required,oneof=call email meeting note"`
	Title        string       `json:"title" validate:"required"`
	Notes        *string      `json:"notes,omitempty"`
	ActivityDate string       `json:"activity_date" validate:"required,datetime=2006-01-02"`
	Duration     *int         `json:"duration,omitempty" validate:"omitempty,gt=0"`
}

// Validate applies the add-activity rules.
func (in ActivityInput) Validate() error {
	return validateStruct(in)
}

// Normalize drops a duration on anything that is not a call.
func (in ActivityInput) Normalize() ActivityInput {
	if in.ActivityType != ActivityCall {
		in.Duration = nil
	}
	return in
}
