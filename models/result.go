package models

// CandidateResult — строка итоговой таблицы по одному кандидату.
type CandidateResult struct {
	CandidateID  int     `json:"candidate_id"`
	VoteCount    int     `json:"vote_count"`
	SharePercent float64 `json:"share_percent"`
	Elected      bool    `json:"elected"`

	Candidate *Candidate `json:"candidate,omitempty"`
}

// TallyResult — детерминированный результат подсчёта по одной должности.
// Производная величина: всегда пересчитывается из строк votes,
// источником истины не является.
type TallyResult struct {
	PositionID       int               `json:"position_id"`
	TotalBallots     int               `json:"total_ballots"`
	RankedCandidates []CandidateResult `json:"ranked_candidates"`
}

// ElectionResult — результаты всех должностей одних выборов,
// упорядоченные по order_index.
type ElectionResult struct {
	ElectionID int           `json:"election_id"`
	Positions  []TallyResult `json:"positions"`
}
