package models

// Position — оспариваемая должность в рамках одних выборов.
// Удаляется каскадно вместе с выборами; неизменяема после выхода
// выборов из фазы draft.
type Position struct {
	ID          int     `json:"id" db:"id"`
	ElectionID  int     `json:"election_id" db:"election_id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`
	SeatCount   int     `json:"seat_count" db:"seat_count"`
	OrderIndex  int     `json:"order_index" db:"order_index"`

	Candidates []Candidate `json:"candidates,omitempty" db:"-"`
}
