package models

import "time"

// ElectionPhase представляет фазы выборов, соответствующие ENUM в БД.
// Жизненный цикл строго линейный, переходов назад нет.
type ElectionPhase string

const (
	PhaseDraft            ElectionPhase = "draft"
	PhaseOpenForCandidacy ElectionPhase = "open_for_candidacy"
	PhaseVotingOpen       ElectionPhase = "voting_open"
	PhaseVotingClosed     ElectionPhase = "voting_closed"
	PhaseResultsPublished ElectionPhase = "results_published"
)

func (p ElectionPhase) Valid() bool {
	switch p {
	case PhaseDraft, PhaseOpenForCandidacy, PhaseVotingOpen, PhaseVotingClosed, PhaseResultsPublished:
		return true
	default:
		return false
	}
}

// Next возвращает следующую фазу жизненного цикла.
// Для терминальной фазы ok == false.
func (p ElectionPhase) Next() (next ElectionPhase, ok bool) {
	switch p {
	case PhaseDraft:
		return PhaseOpenForCandidacy, true
	case PhaseOpenForCandidacy:
		return PhaseVotingOpen, true
	case PhaseVotingOpen:
		return PhaseVotingClosed, true
	case PhaseVotingClosed:
		return PhaseResultsPublished, true
	default:
		return "", false
	}
}

// CanTransitionTo разрешает только шаг вперёд на одну фазу.
func (p ElectionPhase) CanTransitionTo(target ElectionPhase) bool {
	next, ok := p.Next()
	return ok && next == target
}

// Election представляет выборы.
type Election struct {
	ID                int           `json:"id" db:"id"`
	Title             string        `json:"title" db:"title"`
	Description       *string       `json:"description,omitempty" db:"description"`
	CandidacyDeadline time.Time     `json:"candidacy_deadline" db:"candidacy_deadline"`
	StartDate         time.Time     `json:"start_date" db:"start_date"`
	EndDate           time.Time     `json:"end_date" db:"end_date"`
	Phase             ElectionPhase `json:"phase" db:"phase"`
	CreatedBy         int           `json:"created_by" db:"created_by"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Positions []Position `json:"positions,omitempty" db:"-"`
}

// PhaseTransition — строка аудита, записывается в одной транзакции
// с каждым изменением фазы.
type PhaseTransition struct {
	ID         int           `json:"id" db:"id"`
	ElectionID int           `json:"election_id" db:"election_id"`
	FromPhase  ElectionPhase `json:"from_phase" db:"from_phase"`
	ToPhase    ElectionPhase `json:"to_phase" db:"to_phase"`
	ActorID    int           `json:"actor_id" db:"actor_id"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}
