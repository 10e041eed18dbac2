package models

import "time"

// Vote — один бюллетень избирателя по одной должности.
// Неизменяем и неудаляем после записи; уникальность пары
// (voter_id, position_id) обеспечивается ограничением в БД,
// а не только проверкой в приложении.
type Vote struct {
	ID           int       `json:"id" db:"id"`
	VoterID      int       `json:"voter_id" db:"voter_id"`
	ElectionID   int       `json:"election_id" db:"election_id"`
	PositionID   int       `json:"position_id" db:"position_id"`
	CandidateIDs []int     `json:"candidate_ids" db:"candidate_ids"`
	Receipt      string    `json:"receipt" db:"receipt"`
	CastAt       time.Time `json:"cast_at" db:"cast_at"`
}

// VoteReceipt возвращается избирателю как подтверждение приёма бюллетеня.
type VoteReceipt struct {
	VoteID  int       `json:"vote_id"`
	Receipt string    `json:"receipt"`
	CastAt  time.Time `json:"cast_at"`
}
