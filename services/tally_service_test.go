package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Dosada05/voting-system/models"
)

func makeCandidate(id, positionID int, submittedAt time.Time) models.Candidate {
	return models.Candidate{
		ID:          id,
		PositionID:  positionID,
		Status:      models.CandidateApproved,
		SubmittedAt: submittedAt,
	}
}

func makeVote(id, positionID int, candidateIDs ...int) models.Vote {
	return models.Vote{
		ID:           id,
		PositionID:   positionID,
		CandidateIDs: candidateIDs,
	}
}

func TestComputeTallySharesRoundToOneDecimal(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	position := &models.Position{ID: 1, SeatCount: 1}
	candidates := []models.Candidate{
		makeCandidate(10, 1, base),
		makeCandidate(20, 1, base.Add(time.Minute)),
	}

	// 17 бюллетеней: 10 за кандидата 10, 7 за кандидата 20.
	var votes []models.Vote
	for i := 0; i < 10; i++ {
		votes = append(votes, makeVote(i+1, 1, 10))
	}
	for i := 0; i < 7; i++ {
		votes = append(votes, makeVote(i+11, 1, 20))
	}

	result := computeTally(position, candidates, votes)

	if result.TotalBallots != 17 {
		t.Fatalf("total ballots = %d, want 17", result.TotalBallots)
	}
	first, second := result.RankedCandidates[0], result.RankedCandidates[1]
	if first.CandidateID != 10 || first.VoteCount != 10 || first.SharePercent != 58.8 {
		t.Errorf("first = {id %d, votes %d, share %.1f}, want {10, 10, 58.8}", first.CandidateID, first.VoteCount, first.SharePercent)
	}
	if second.CandidateID != 20 || second.VoteCount != 7 || second.SharePercent != 41.2 {
		t.Errorf("second = {id %d, votes %d, share %.1f}, want {20, 7, 41.2}", second.CandidateID, second.VoteCount, second.SharePercent)
	}
	if !first.Elected || second.Elected {
		t.Errorf("elected flags = (%v, %v), want (true, false)", first.Elected, second.Elected)
	}
}

func TestComputeTallyTieBrokenBySubmissionOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	position := &models.Position{ID: 1, SeatCount: 2}
	candidates := []models.Candidate{
		makeCandidate(3, 1, base.Add(2*time.Hour)), // C, подана позже всех
		makeCandidate(1, 1, base),                  // A
		makeCandidate(2, 1, base.Add(time.Hour)),   // B
	}

	var votes []models.Vote
	id := 1
	for i := 0; i < 5; i++ {
		votes = append(votes, makeVote(id, 1, 1, 2))
		id++
	}
	for i := 0; i < 3; i++ {
		votes = append(votes, makeVote(id, 1, 3))
		id++
	}

	result := computeTally(position, candidates, votes)

	wantOrder := []int{1, 2, 3}
	var gotOrder []int
	for _, rc := range result.RankedCandidates {
		gotOrder = append(gotOrder, rc.CandidateID)
	}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Fatalf("ranking order = %v, want %v", gotOrder, wantOrder)
	}

	// При равенстве голосов A и B оба места занимают поданные раньше.
	if !result.RankedCandidates[0].Elected || !result.RankedCandidates[1].Elected {
		t.Errorf("expected tied candidates 1 and 2 to take both seats")
	}
	if result.RankedCandidates[2].Elected {
		t.Errorf("candidate 3 must not be elected")
	}
}

func TestComputeTallyDeterministic(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	position := &models.Position{ID: 1, SeatCount: 1}
	candidates := []models.Candidate{
		makeCandidate(1, 1, base),
		makeCandidate(2, 1, base), // одинаковый submitted_at, решает id
		makeCandidate(3, 1, base.Add(time.Minute)),
	}
	votes := []models.Vote{
		makeVote(1, 1, 1),
		makeVote(2, 1, 2),
		makeVote(3, 1, 3),
	}

	first := computeTally(position, candidates, votes)
	for i := 0; i < 10; i++ {
		again := computeTally(position, candidates, votes)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("tally differs between runs: %+v vs %+v", first, again)
		}
	}
	if first.RankedCandidates[0].CandidateID != 1 {
		t.Errorf("equal-count tie must resolve by id, got %d first", first.RankedCandidates[0].CandidateID)
	}
}

func TestComputeTallyZeroVoteCandidatesIncluded(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	position := &models.Position{ID: 1, SeatCount: 1}
	candidates := []models.Candidate{
		makeCandidate(1, 1, base),
		makeCandidate(2, 1, base.Add(time.Minute)),
	}
	votes := []models.Vote{makeVote(1, 1, 1)}

	result := computeTally(position, candidates, votes)

	if len(result.RankedCandidates) != 2 {
		t.Fatalf("expected both candidates ranked, got %d", len(result.RankedCandidates))
	}
	last := result.RankedCandidates[1]
	if last.CandidateID != 2 || last.VoteCount != 0 || last.SharePercent != 0 {
		t.Errorf("zero-vote candidate = %+v, want id 2 with 0 votes and 0%%", last)
	}
}

func TestComputeTallyNoBallots(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	position := &models.Position{ID: 1, SeatCount: 2}
	candidates := []models.Candidate{makeCandidate(1, 1, base)}

	result := computeTally(position, candidates, nil)

	if result.TotalBallots != 0 {
		t.Fatalf("total ballots = %d, want 0", result.TotalBallots)
	}
	rc := result.RankedCandidates[0]
	if rc.SharePercent != 0 {
		t.Errorf("share with zero ballots = %.1f, want 0", rc.SharePercent)
	}
	// Мест больше, чем кандидатов: единственный кандидат избран.
	if !rc.Elected {
		t.Errorf("sole candidate must be elected when seats exceed candidates")
	}
}

func TestComputeTallyIgnoresRetiredCandidateVotes(t *testing.T) {
	// Голос за кандидата, которого нет в списке approved (например,
	// отклонённого после подачи бюллетеней), не учитывается.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	position := &models.Position{ID: 1, SeatCount: 1}
	candidates := []models.Candidate{makeCandidate(1, 1, base)}
	votes := []models.Vote{
		makeVote(1, 1, 1),
		makeVote(2, 1, 99),
	}

	result := computeTally(position, candidates, votes)

	if result.TotalBallots != 2 {
		t.Fatalf("total ballots = %d, want 2", result.TotalBallots)
	}
	rc := result.RankedCandidates[0]
	if rc.VoteCount != 1 || rc.SharePercent != 50.0 {
		t.Errorf("candidate 1 = {votes %d, share %.1f}, want {1, 50.0}", rc.VoteCount, rc.SharePercent)
	}
}

func TestResultsHiddenUntilPublished(t *testing.T) {
	electionRepo := newFakeElectionRepo()
	positionRepo := newFakePositionRepo()
	candidateRepo := newFakeCandidateRepo()
	voteRepo := newFakeVoteRepo()
	service := NewTallyService(electionRepo, positionRepo, candidateRepo, voteRepo)

	ctx := context.Background()
	election := &models.Election{Title: "Board 2026", Phase: models.PhaseVotingClosed}
	if err := electionRepo.Create(ctx, election); err != nil {
		t.Fatalf("create election: %v", err)
	}
	position := &models.Position{ElectionID: election.ID, Title: "Chair", SeatCount: 1}
	if err := positionRepo.Create(ctx, position); err != nil {
		t.Fatalf("create position: %v", err)
	}

	voter := &models.User{Role: models.RoleVoter, Status: models.UserStatusApproved}
	if _, err := service.PositionResults(ctx, voter, position.ID); !errors.Is(err, ErrResultsNotPublished) {
		t.Fatalf("voter before publication: err = %v, want ErrResultsNotPublished", err)
	}
	if _, err := service.ElectionResults(ctx, nil, election.ID); !errors.Is(err, ErrResultsNotPublished) {
		t.Fatalf("anonymous before publication: err = %v, want ErrResultsNotPublished", err)
	}

	// Админ видит предварительный итог в любой фазе.
	admin := &models.User{Role: models.RoleAdmin, Status: models.UserStatusApproved}
	if _, err := service.PositionResults(ctx, admin, position.ID); err != nil {
		t.Fatalf("admin preview failed: %v", err)
	}

	electionRepo.elections[election.ID].Phase = models.PhaseResultsPublished
	result, err := service.ElectionResults(ctx, voter, election.ID)
	if err != nil {
		t.Fatalf("voter after publication: %v", err)
	}
	if len(result.Positions) != 1 || result.Positions[0].PositionID != position.ID {
		t.Fatalf("unexpected election result: %+v", result)
	}
}
