package models

import "time"

type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "draft"
	StatusSubmitted ApplicationStatus = "submitted"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
)

type ApplicationEvent string

const (
	EventCreate  ApplicationEvent = "create"
	EventSubmit  ApplicationEvent = "submit"
	EventApprove ApplicationEvent = "approve"
	EventReject  ApplicationEvent = "reject"
	EventEdit    ApplicationEvent = "edit"
)

// TeacherProfile is the part of a teacher's profile an application is
// reviewed on. Required fields must be non-empty at submission time.
type TeacherProfile struct {
	FullName        string `json:"fullName" validate:"required"`
	Subject         string `json:"subject" validate:"required"`
	Qualification   string `json:"qualification" validate:"required"`
	ExperienceYears int    `json:"experienceYears" validate:"gte=0"`
	City            string `json:"city" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Bio             string `json:"bio,omitempty"`
}

// Transition is one entry of an application's history.
type Transition struct {
	Seq   int               `json:"seq"`
	Event ApplicationEvent  `json:"event"`
	From  ApplicationStatus `json:"from,omitempty"`
	To    ApplicationStatus `json:"to"`
	Actor string            `json:"actor"`
	Note  string            `json:"note,omitempty"`
	At    time.Time         `json:"at"`
}

// TeacherApplication is the single review record a teacher owns. It is
// never deleted; rejection sends it back through edit to draft.
type TeacherApplication struct {
	ID          string            `json:"applicationId"`
	TeacherID   string            `json:"teacherId"`
	Status      ApplicationStatus `json:"status"`
	Profile     TeacherProfile    `json:"profile"`
	Snapshot    *TeacherProfile   `json:"snapshot,omitempty"` // profile as submitted
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
	DecidedAt   *time.Time        `json:"decidedAt,omitempty"`
	DecidedBy   string            `json:"decidedBy,omitempty"`
	History     []Transition      `json:"history"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// LastTransition returns the most recent history entry.
func (a *TeacherApplication) LastTransition() Transition {
	if len(a.History) == 0 {
		return Transition{}
	}
	return a.History[len(a.History)-1]
}

// ApplicationRef maps a teacher to their application id.
type ApplicationRef struct {
	ApplicationID string `json:"applicationId"`
}
