package models

import "time"

// CandidateStatus представляет статусы заявки кандидата.
// pending -> approved либо pending -> rejected, оба терминальные.
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidatePending, CandidateApproved, CandidateRejected:
		return true
	default:
		return false
	}
}

type Candidate struct {
	ID              int             `json:"id" db:"id"`
	UserID          int             `json:"user_id" db:"user_id"`
	PositionID      int             `json:"position_id" db:"position_id"`
	Statement       string          `json:"statement" db:"statement"`
	Status          CandidateStatus `json:"status" db:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	SubmittedAt     time.Time       `json:"submitted_at" db:"submitted_at"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	PhotoKey        *string         `json:"-" db:"photo_key"`
	PhotoURL        *string         `json:"photo_url,omitempty" db:"-"`
	DocumentKey     *string         `json:"-" db:"document_key"`
	DocumentURL     *string         `json:"document_url,omitempty" db:"-"`

	User *User `json:"user,omitempty" db:"-"`
}
