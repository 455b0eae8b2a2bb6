package domain

import (
	"strings"
	"time"
)

// ReminderPriority represents the urgency of a reminder
type ReminderPriority string

const (
	PriorityHigh   ReminderPriority = "high"
	PriorityMedium ReminderPriority = "medium"
	PriorityLow    ReminderPriority = "low"
)

// ReminderPayload is the validated field set of a create_reminder proposal.
type ReminderPayload struct {
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Validate checks the payload is complete enough to commit. Missing or
// malformed fields are reported so the orchestrator can ask a clarifying
// question instead of guessing defaults.
func (p ReminderPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return NewDomainErrorWithCause(ErrCodeValidation, "missing required field", ErrMissingRequiredField)
	}
	if strings.TrimSpace(p.Date) == "" {
		return NewDomainErrorWithCause(ErrCodeValidation, "missing required field", ErrMissingRequiredField)
	}
	if _, err := time.Parse("2006-01-02", p.Date); err != nil {
		return ErrInvalidDate
	}
	if p.Priority != "" {
		switch ReminderPriority(p.Priority) {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return ErrInvalidPriority
		}
	}
	return nil
}

// MissingFields lists required fields that are absent or malformed.
func (p ReminderPayload) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Date) == "" {
		missing = append(missing, "date")
	} else if _, err := time.Parse("2006-01-02", p.Date); err != nil {
		missing = append(missing, "date")
	}
	return missing
}

// Reminder is the committed side effect of a confirmed create_reminder
// action. Owned by the reminder store once created.
type Reminder struct {
	ID          string
	Title       string
	Date        string // YYYY-MM-DD
	Description string
	Priority    ReminderPriority
	Category    string
	Completed   bool
	CreatedAt   time.Time
}

// NewReminder builds a Reminder from a validated payload, applying the
// medium/general defaults the payload leaves open.
func NewReminder(id string, p ReminderPayload, createdAt time.Time) *Reminder {
	priority := ReminderPriority(p.Priority)
	if priority == "" {
		priority = PriorityMedium
	}
	category := p.Category
	if category == "" {
		category = "general"
	}
	return &Reminder{
		ID:          id,
		Title:       p.Title,
		Date:        p.Date,
		Description: p.Description,
		Priority:    priority,
		Category:    category,
		Completed:   false,
		CreatedAt:   createdAt,
	}
}

// ActionLog records a committed side effect for the activity feed.
type ActionLog struct {
	ID          string
	ActionType  string
	Description string
	Status      string
	SessionID   string
	CreatedAt   time.Time
}
