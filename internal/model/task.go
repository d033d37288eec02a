package model

import (
	"encoding/json"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority accepts any letter case and returns the canonical value.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	}
	return "", false
}

// Rank orders priority tiers: High(3) > Medium(2) > Low(1). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Task struct {
	ID          string     `json:"id" bson:"_id"`
	OwnerID     string     `json:"ownerId" bson:"ownerId"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Priority    Priority   `json:"priority" bson:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Completed   Completion `json:"completed" bson:"completed"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

type taskJSON Task

// MarshalJSON writes dueDate as "2006-01-02", the same shape requests use.
func (t Task) MarshalJSON() ([]byte, error) {
	var due *DueDate
	if t.DueDate != nil {
		d := NewDueDate(Day(*t.DueDate))
		due = &d
	}
	return json.Marshal(struct {
		taskJSON
		DueDate *DueDate `json:"dueDate,omitempty"`
	}{taskJSON(t), due})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	aux := struct {
		*taskJSON
		DueDate *DueDate `json:"dueDate"`
	}{taskJSON: (*taskJSON)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.DueDate = nil
	if aux.DueDate != nil {
		d := aux.DueDate.Time
		t.DueDate = &d
	}
	return nil
}

// TaskInput is the body of a create request. Every field is optional on the wire,
// the service applies defaults.
type TaskInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    string      `json:"priority"`
	DueDate     *DueDate    `json:"dueDate"`
	Completed   *Completion `json:"completed"`
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title        *string     `json:"title"`
	Description  *string     `json:"description"`
	Priority     *string     `json:"priority"`
	DueDate      *DueDate    `json:"dueDate"`
	ClearDueDate bool        `json:"clearDueDate"`
	Completed    *Completion `json:"completed"`
}

// TaskChanges is a validated TaskPatch ready for the store.
type TaskChanges struct {
	Title        *string
	Description  *string
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
}

func (c TaskChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Priority == nil &&
		c.DueDate == nil && !c.ClearDueDate && c.Completed == nil
}

// Apply copies the changes onto t.
func (c TaskChanges) Apply(t *Task) {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.ClearDueDate {
		t.DueDate = nil
	}
	if c.DueDate != nil {
		d := *c.DueDate
		t.DueDate = &d
	}
	if c.Completed != nil {
		t.Completed = Completion(*c.Completed)
	}
}
