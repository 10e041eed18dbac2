package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/voting-system/models"
)

type ballotFixture struct {
	service       *BallotService
	electionRepo  *fakeElectionRepo
	positionRepo  *fakePositionRepo
	candidateRepo *fakeCandidateRepo
	voteRepo      *fakeVoteRepo
	userRepo      *fakeUserRepo
	election      *models.Election
	position      *models.Position
	candidates    []*models.Candidate
}

// newBallotFixture готовит выборы в фазе voting_open с одной должностью
// и numCandidates одобренными кандидатами.
func newBallotFixture(t *testing.T, seatCount, numCandidates int) *ballotFixture {
	t.Helper()
	ctx := context.Background()

	electionRepo := newFakeElectionRepo()
	positionRepo := newFakePositionRepo()
	candidateRepo := newFakeCandidateRepo()
	voteRepo := newFakeVoteRepo()
	userRepo := newFakeUserRepo()

	now := time.Now()
	election := &models.Election{
		Title:             "Student Council 2026",
		CandidacyDeadline: now.Add(-2 * time.Hour),
		StartDate:         now.Add(-time.Hour),
		EndDate:           now.Add(time.Hour),
		Phase:             models.PhaseVotingOpen,
	}
	if err := electionRepo.Create(ctx, election); err != nil {
		t.Fatalf("create election: %v", err)
	}

	position := &models.Position{ElectionID: election.ID, Title: "President", SeatCount: seatCount}
	if err := positionRepo.Create(ctx, position); err != nil {
		t.Fatalf("create position: %v", err)
	}

	var candidates []*models.Candidate
	for i := 0; i < numCandidates; i++ {
		candidate := &models.Candidate{
			UserID:      100 + i,
			PositionID:  position.ID,
			Statement:   "elect me",
			Status:      models.CandidateApproved,
			SubmittedAt: now.Add(time.Duration(i) * time.Minute),
		}
		if err := candidateRepo.Create(ctx, candidate); err != nil {
			t.Fatalf("create candidate: %v", err)
		}
		candidates = append(candidates, candidate)
	}

	return &ballotFixture{
		service:       NewBallotService(voteRepo, candidateRepo, positionRepo, electionRepo, userRepo),
		electionRepo:  electionRepo,
		positionRepo:  positionRepo,
		candidateRepo: candidateRepo,
		voteRepo:      voteRepo,
		userRepo:      userRepo,
		election:      election,
		position:      position,
		candidates:    candidates,
	}
}

// seedUser регистрирует пользователя в хранилище и возвращает caller,
// каким его собирает middleware из claims токена.
func (f *ballotFixture) seedUser(id int, role models.UserRole, status models.UserStatus) *models.User {
	f.userRepo.put(models.User{ID: id, Role: role, Status: status})
	return &models.User{ID: id, Role: role, Status: status}
}

func (f *ballotFixture) approvedVoter(id int) *models.User {
	return f.seedUser(id, models.RoleVoter, models.UserStatusApproved)
}

func TestCastVoteHappyPath(t *testing.T) {
	f := newBallotFixture(t, 1, 2)
	ctx := context.Background()

	receipt, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{f.candidates[0].ID})
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if receipt.Receipt == "" || receipt.VoteID == 0 {
		t.Fatalf("receipt not filled in: %+v", receipt)
	}

	voted, err := f.service.HasVoted(ctx, 1, f.position.ID)
	if err != nil || !voted {
		t.Fatalf("HasVoted = (%v, %v), want (true, nil)", voted, err)
	}
	ids, err := f.service.BallotStatus(ctx, 1, f.election.ID)
	if err != nil || len(ids) != 1 || ids[0] != f.position.ID {
		t.Fatalf("BallotStatus = (%v, %v), want ([%d], nil)", ids, err, f.position.ID)
	}
}

func TestCastVoteRequiresApprovedVoter(t *testing.T) {
	f := newBallotFixture(t, 1, 1)
	ctx := context.Background()
	ballot := []int{f.candidates[0].ID}

	cases := []struct {
		name   string
		caller *models.User
	}{
		{"anonymous", nil},
		{"unknown user", &models.User{ID: 404, Role: models.RoleVoter, Status: models.UserStatusApproved}},
		{"pending voter", f.seedUser(1, models.RoleVoter, models.UserStatusPending)},
		{"blocked voter", f.seedUser(2, models.RoleVoter, models.UserStatusBlocked)},
		{"approved candidate", f.seedUser(3, models.RoleCandidate, models.UserStatusApproved)},
		{"approved spectator", f.seedUser(4, models.RoleSpectator, models.UserStatusApproved)},
		{"admin", f.seedUser(5, models.RoleAdmin, models.UserStatusApproved)},
	}
	for _, tc := range cases {
		if _, err := f.service.CastVote(ctx, tc.caller, f.position.ID, ballot); !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("%s: err = %v, want ErrNotAuthorized", tc.name, err)
		}
	}
}

// Токен выдан до блокировки: в claims статус approved, в хранилище
// blocked. Бюллетень отклоняется, не дожидаясь истечения токена.
func TestCastVoteBlockedAfterTokenIssued(t *testing.T) {
	f := newBallotFixture(t, 1, 1)
	ctx := context.Background()

	staleCaller := f.approvedVoter(1)
	if err := f.userRepo.UpdateStatus(ctx, 1, models.UserStatusBlocked); err != nil {
		t.Fatalf("block user: %v", err)
	}

	if _, err := f.service.CastVote(ctx, staleCaller, f.position.ID, []int{f.candidates[0].ID}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	count, err := f.voteRepo.CountByPosition(ctx, f.position.ID)
	if err != nil || count != 0 {
		t.Fatalf("stored ballots = (%d, %v), want (0, nil)", count, err)
	}
}

func TestCastVoteOutsideVotingWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong phase", func(t *testing.T) {
		f := newBallotFixture(t, 1, 1)
		f.electionRepo.elections[f.election.ID].Phase = models.PhaseVotingClosed
		if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{f.candidates[0].ID}); !errors.Is(err, ErrVotingClosed) {
			t.Fatalf("err = %v, want ErrVotingClosed", err)
		}
	})

	t.Run("before start date", func(t *testing.T) {
		f := newBallotFixture(t, 1, 1)
		f.electionRepo.elections[f.election.ID].StartDate = time.Now().Add(time.Hour)
		if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{f.candidates[0].ID}); !errors.Is(err, ErrVotingClosed) {
			t.Fatalf("err = %v, want ErrVotingClosed", err)
		}
	})

	t.Run("after end date", func(t *testing.T) {
		f := newBallotFixture(t, 1, 1)
		f.electionRepo.elections[f.election.ID].EndDate = time.Now().Add(-time.Minute)
		if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{f.candidates[0].ID}); !errors.Is(err, ErrVotingClosed) {
			t.Fatalf("err = %v, want ErrVotingClosed", err)
		}
	})
}

func TestCastVoteMalformedBallot(t *testing.T) {
	f := newBallotFixture(t, 2, 3)
	ctx := context.Background()
	c := f.candidates

	cases := []struct {
		name   string
		ballot []int
	}{
		{"empty ballot", nil},
		{"more selections than seats", []int{c[0].ID, c[1].ID, c[2].ID}},
		{"duplicate candidate", []int{c[0].ID, c[0].ID}},
	}
	for _, tc := range cases {
		if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, tc.ballot); !errors.Is(err, ErrInvalidBallot) {
			t.Errorf("%s: err = %v, want ErrInvalidBallot", tc.name, err)
		}
	}
}

func TestCastVoteIneligibleCandidate(t *testing.T) {
	f := newBallotFixture(t, 2, 1)
	ctx := context.Background()

	pending := &models.Candidate{
		UserID:     200,
		PositionID: f.position.ID,
		Statement:  "still waiting",
		Status:     models.CandidatePending,
	}
	if err := f.candidateRepo.Create(ctx, pending); err != nil {
		t.Fatalf("create pending candidate: %v", err)
	}

	cases := []struct {
		name   string
		ballot []int
	}{
		{"unknown candidate id", []int{9999}},
		{"pending candidate", []int{pending.ID}},
		{"mixed approved and pending", []int{f.candidates[0].ID, pending.ID}},
	}
	for _, tc := range cases {
		if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, tc.ballot); !errors.Is(err, ErrIneligibleCandidate) {
			t.Errorf("%s: err = %v, want ErrIneligibleCandidate", tc.name, err)
		}
	}
}

func TestCastVoteRejectsCandidateFromOtherPosition(t *testing.T) {
	f := newBallotFixture(t, 1, 1)
	ctx := context.Background()

	other := &models.Position{ElectionID: f.election.ID, Title: "Treasurer", SeatCount: 1}
	if err := f.positionRepo.Create(ctx, other); err != nil {
		t.Fatalf("create position: %v", err)
	}
	foreign := &models.Candidate{
		UserID:     300,
		PositionID: other.ID,
		Statement:  "wrong race",
		Status:     models.CandidateApproved,
	}
	if err := f.candidateRepo.Create(ctx, foreign); err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{foreign.ID}); !errors.Is(err, ErrIneligibleCandidate) {
		t.Fatalf("err = %v, want ErrIneligibleCandidate", err)
	}
}

func TestCastVoteSecondBallotRejected(t *testing.T) {
	f := newBallotFixture(t, 1, 2)
	ctx := context.Background()

	if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{f.candidates[0].ID}); err != nil {
		t.Fatalf("first ballot: %v", err)
	}
	// Повторный бюллетень отклоняется, даже если выбор другой.
	if _, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{f.candidates[1].ID}); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second ballot: err = %v, want ErrAlreadyVoted", err)
	}

	count, err := f.voteRepo.CountByPosition(ctx, f.position.ID)
	if err != nil || count != 1 {
		t.Fatalf("stored ballots = (%d, %v), want (1, nil)", count, err)
	}
}

// Один избиратель шлёт N бюллетеней одновременно: записывается ровно
// один, остальные получают ErrAlreadyVoted.
func TestCastVoteConcurrentDuplicates(t *testing.T) {
	f := newBallotFixture(t, 1, 1)
	ctx := context.Background()
	const attempts = 32

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.CastVote(ctx, f.approvedVoter(7), f.position.ID, []int{f.candidates[0].ID})
		}(i)
	}
	wg.Wait()

	succeeded, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyVoted):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || duplicates != attempts-1 {
		t.Fatalf("succeeded = %d, duplicates = %d, want 1 and %d", succeeded, duplicates, attempts-1)
	}
}

func TestCastVoteErrorMessagesNameTheProblem(t *testing.T) {
	f := newBallotFixture(t, 1, 2)
	ctx := context.Background()

	_, err := f.service.CastVote(ctx, f.approvedVoter(1), f.position.ID, []int{f.candidates[0].ID, f.candidates[1].ID})
	if !errors.Is(err, ErrInvalidBallot) {
		t.Fatalf("err = %v, want ErrInvalidBallot", err)
	}
	if !strings.Contains(err.Error(), "seat") {
		t.Errorf("error should mention the seat limit, got %q", err)
	}
}
