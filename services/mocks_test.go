package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
	"github.com/Dosada05/voting-system/storage"
)

// In-memory реализации репозиториев для unit-тестов сервисного слоя.
// Повторяют контракт postgres-реализаций, включая условные обновления
// и ограничения уникальности.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

// put кладёт пользователя с заданным ID напрямую, минуя Create.
func (r *fakeUserRepo) put(user models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = &user
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context, filter repositories.ListUsersFilter) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && user.Status != *filter.Status {
			continue
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id int, status models.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Status = status
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.LastLogin = &at
	return nil
}

type fakeElectionRepo struct {
	mu        sync.Mutex
	nextID    int
	elections map[int]*models.Election
}

func newFakeElectionRepo() *fakeElectionRepo {
	return &fakeElectionRepo{nextID: 1, elections: make(map[int]*models.Election)}
}

func (r *fakeElectionRepo) Create(_ context.Context, election *models.Election) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	election.ID = r.nextID
	r.nextID++
	election.CreatedAt = time.Now()
	copied := *election
	r.elections[election.ID] = &copied
	return nil
}

func (r *fakeElectionRepo) GetByID(_ context.Context, id int) (*models.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	election, ok := r.elections[id]
	if !ok {
		return nil, repositories.ErrElectionNotFound
	}
	copied := *election
	return &copied, nil
}

func (r *fakeElectionRepo) List(_ context.Context, filter repositories.ListElectionsFilter) ([]models.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Election
	for _, election := range r.elections {
		if filter.Phase != nil && election.Phase != *filter.Phase {
			continue
		}
		if filter.CreatedBy != nil && election.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, *election)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeElectionRepo) UpdateDetails(_ context.Context, election *models.Election) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.elections[election.ID]
	if !ok {
		return repositories.ErrElectionNotFound
	}
	stored.Title = election.Title
	stored.Description = election.Description
	stored.CandidacyDeadline = election.CandidacyDeadline
	stored.StartDate = election.StartDate
	stored.EndDate = election.EndDate
	return nil
}

// UpdatePhase повторяет условный UPDATE postgres-реализации: переход
// проходит только из ожидаемой фазы.
func (r *fakeElectionRepo) UpdatePhase(_ context.Context, _ repositories.SQLExecutor, id int, from, to models.ElectionPhase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	election, ok := r.elections[id]
	if !ok {
		return repositories.ErrElectionPhaseChanged
	}
	if election.Phase != from {
		return repositories.ErrElectionPhaseChanged
	}
	election.Phase = to
	return nil
}

func (r *fakeElectionRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.elections[id]; !ok {
		return repositories.ErrElectionNotFound
	}
	delete(r.elections, id)
	return nil
}

type fakePositionRepo struct {
	mu        sync.Mutex
	nextID    int
	positions map[int]*models.Position
}

func newFakePositionRepo() *fakePositionRepo {
	return &fakePositionRepo{nextID: 1, positions: make(map[int]*models.Position)}
}

func (r *fakePositionRepo) Create(_ context.Context, position *models.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	position.ID = r.nextID
	r.nextID++
	copied := *position
	r.positions[position.ID] = &copied
	return nil
}

func (r *fakePositionRepo) GetByID(_ context.Context, id int) (*models.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	position, ok := r.positions[id]
	if !ok {
		return nil, repositories.ErrPositionNotFound
	}
	copied := *position
	return &copied, nil
}

func (r *fakePositionRepo) ListByElection(_ context.Context, electionID int) ([]models.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Position
	for _, position := range r.positions {
		if position.ElectionID == electionID {
			out = append(out, *position)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakePositionRepo) Update(_ context.Context, position *models.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.positions[position.ID]; !ok {
		return repositories.ErrPositionNotFound
	}
	copied := *position
	r.positions[position.ID] = &copied
	return nil
}

func (r *fakePositionRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.positions[id]; !ok {
		return repositories.ErrPositionNotFound
	}
	delete(r.positions, id)
	return nil
}

type fakeCandidateRepo struct {
	mu         sync.Mutex
	nextID     int
	candidates map[int]*models.Candidate
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{nextID: 1, candidates: make(map[int]*models.Candidate)}
}

func (r *fakeCandidateRepo) Create(_ context.Context, candidate *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.candidates {
		if existing.UserID == candidate.UserID && existing.PositionID == candidate.PositionID {
			return repositories.ErrCandidateDuplicate
		}
	}
	candidate.ID = r.nextID
	r.nextID++
	if candidate.SubmittedAt.IsZero() {
		candidate.SubmittedAt = time.Now()
	}
	copied := *candidate
	r.candidates[candidate.ID] = &copied
	return nil
}

func (r *fakeCandidateRepo) GetByID(_ context.Context, id int) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidate, ok := r.candidates[id]
	if !ok {
		return nil, repositories.ErrCandidateNotFound
	}
	copied := *candidate
	return &copied, nil
}

func (r *fakeCandidateRepo) List(_ context.Context, filter repositories.ListCandidatesFilter) ([]models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Candidate
	for _, candidate := range r.candidates {
		if filter.PositionID != nil && candidate.PositionID != *filter.PositionID {
			continue
		}
		if filter.UserID != nil && candidate.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && candidate.Status != *filter.Status {
			continue
		}
		out = append(out, *candidate)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateReview проходит только для pending-заявки, как и условный
// UPDATE в postgres-реализации.
func (r *fakeCandidateRepo) UpdateReview(_ context.Context, id int, status models.CandidateStatus, reason *string, reviewedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidate, ok := r.candidates[id]
	if !ok || candidate.Status != models.CandidatePending {
		return repositories.ErrCandidateNotFound
	}
	candidate.Status = status
	candidate.RejectionReason = reason
	candidate.ReviewedAt = &reviewedAt
	return nil
}

func (r *fakeCandidateRepo) UpdatePhotoKey(_ context.Context, id int, photoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidate, ok := r.candidates[id]
	if !ok {
		return repositories.ErrCandidateNotFound
	}
	candidate.PhotoKey = photoKey
	return nil
}

func (r *fakeCandidateRepo) UpdateDocumentKey(_ context.Context, id int, documentKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidate, ok := r.candidates[id]
	if !ok {
		return repositories.ErrCandidateNotFound
	}
	candidate.DocumentKey = documentKey
	return nil
}

func (r *fakeCandidateRepo) CountApprovedByPosition(_ context.Context, positionID int, ids []int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, id := range ids {
		candidate, ok := r.candidates[id]
		if ok && candidate.PositionID == positionID && candidate.Status == models.CandidateApproved {
			count++
		}
	}
	return count, nil
}

type fakeVoteRepo struct {
	mu      sync.Mutex
	nextID  int
	votes   []models.Vote
	byKey   map[[2]int]struct{} // (voter_id, position_id)
	listErr error               // если задана, ListByPosition падает с ней
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{nextID: 1, byKey: make(map[[2]int]struct{})}
}

// Create воспроизводит ограничение уникальности (voter_id, position_id):
// из конкурентных вставок одной пары проходит ровно одна.
func (r *fakeVoteRepo) Create(_ context.Context, vote *models.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int{vote.VoterID, vote.PositionID}
	if _, ok := r.byKey[key]; ok {
		return repositories.ErrVoteDuplicate
	}
	r.byKey[key] = struct{}{}
	vote.ID = r.nextID
	r.nextID++
	vote.CastAt = time.Now()
	r.votes = append(r.votes, *vote)
	return nil
}

func (r *fakeVoteRepo) ListByPosition(_ context.Context, positionID int) ([]models.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Vote
	for _, vote := range r.votes {
		if vote.PositionID == positionID {
			out = append(out, vote)
		}
	}
	return out, nil
}

func (r *fakeVoteRepo) CountByPosition(_ context.Context, positionID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, vote := range r.votes {
		if vote.PositionID == positionID {
			count++
		}
	}
	return count, nil
}

func (r *fakeVoteRepo) Exists(_ context.Context, voterID, positionID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byKey[[2]int{voterID, positionID}]
	return ok, nil
}

func (r *fakeVoteRepo) ExistsByElection(_ context.Context, electionID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vote := range r.votes {
		if vote.ElectionID == electionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVoteRepo) ListPositionIDsVoted(_ context.Context, voterID, electionID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, vote := range r.votes {
		if vote.VoterID == voterID && vote.ElectionID == electionID {
			out = append(out, vote.PositionID)
		}
	}
	sort.Ints(out)
	return out, nil
}

type fakeTransitionRepo struct {
	mu          sync.Mutex
	nextID      int
	transitions []models.PhaseTransition
}

func newFakeTransitionRepo() *fakeTransitionRepo {
	return &fakeTransitionRepo{nextID: 1}
}

func (r *fakeTransitionRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.PhaseTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	r.transitions = append(r.transitions, *t)
	return nil
}

func (r *fakeTransitionRepo) ListByElection(_ context.Context, electionID int) ([]models.PhaseTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PhaseTransition
	for _, t := range r.transitions {
		if t.ElectionID == electionID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]string // key -> content type
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]string)}
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, _ io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return fmt.Sprintf("https://files.test/%s", key)
}
