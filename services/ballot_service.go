package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
	"github.com/google/uuid"
)

// BallotService принимает бюллетени. Единственная операция записи —
// CastVote; изменить или удалить поданный бюллетень нельзя нигде.
// Гонку двух одновременных бюллетеней одного избирателя по одной
// должности разрешает ограничение уникальности в хранилище, а не
// блокировка в процессе: сервис может работать в несколько реплик.
type BallotService struct {
	voteRepo      repositories.VoteRepository
	candidateRepo repositories.CandidateRepository
	positionRepo  repositories.PositionRepository
	electionRepo  repositories.ElectionRepository
	userRepo      repositories.UserRepository
}

func NewBallotService(
	voteRepo repositories.VoteRepository,
	candidateRepo repositories.CandidateRepository,
	positionRepo repositories.PositionRepository,
	electionRepo repositories.ElectionRepository,
	userRepo repositories.UserRepository,
) *BallotService {
	return &BallotService{
		voteRepo:      voteRepo,
		candidateRepo: candidateRepo,
		positionRepo:  positionRepo,
		electionRepo:  electionRepo,
		userRepo:      userRepo,
	}
}

// CastVote валидирует и записывает бюллетень. Предусловия проверяются
// в фиксированном порядке, каждое со своим видом ошибки:
// авторизация, окно голосования, форма бюллетеня, право кандидатов
// быть избранными, повторное голосование.
func (s *BallotService) CastVote(ctx context.Context, caller *models.User, positionID int, candidateIDs []int) (*models.VoteReceipt, error) {
	// 1. Только одобренный избиратель. Статус берётся из хранилища:
	// заблокированный после выдачи токена голосовать не может.
	voter, err := resolveCaller(ctx, s.userRepo, caller)
	if err != nil {
		return nil, err
	}
	if !callerIsApproved(voter, models.RoleVoter) {
		return nil, ErrNotAuthorized
	}

	// 2. Голосование открыто и идёт в своём временном окне.
	position, err := s.positionRepo.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, storeUnavailable(err)
	}
	election, err := s.electionRepo.GetByID(ctx, position.ElectionID)
	if err != nil {
		if errors.Is(err, repositories.ErrElectionNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, storeUnavailable(err)
	}
	now := time.Now()
	if election.Phase != models.PhaseVotingOpen || now.Before(election.StartDate) || now.After(election.EndDate) {
		return nil, ErrVotingClosed
	}

	// 3. Форма бюллетеня: непустой, без дублей, не шире числа мест.
	if len(candidateIDs) == 0 {
		return nil, fmt.Errorf("%w: ballot must select at least one candidate", ErrInvalidBallot)
	}
	if len(candidateIDs) > position.SeatCount {
		return nil, fmt.Errorf("%w: ballot selects %d candidates for %d seat(s)", ErrInvalidBallot, len(candidateIDs), position.SeatCount)
	}
	seen := make(map[int]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: ballot lists candidate %d more than once", ErrInvalidBallot, id)
		}
		seen[id] = struct{}{}
	}

	// 4. Каждый выбранный — одобренный кандидат именно этой должности.
	approvedCount, err := s.candidateRepo.CountApprovedByPosition(ctx, positionID, candidateIDs)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if approvedCount != len(candidateIDs) {
		return nil, ErrIneligibleCandidate
	}

	// 5. Вставка; уникальность (voter_id, position_id) держит БД.
	vote := &models.Vote{
		VoterID:      voter.ID,
		ElectionID:   election.ID,
		PositionID:   positionID,
		CandidateIDs: candidateIDs,
		Receipt:      uuid.NewString(),
	}
	if err := s.voteRepo.Create(ctx, vote); err != nil {
		if errors.Is(err, repositories.ErrVoteDuplicate) {
			return nil, ErrAlreadyVoted
		}
		return nil, storeUnavailable(err)
	}

	return &models.VoteReceipt{
		VoteID:  vote.ID,
		Receipt: vote.Receipt,
		CastAt:  vote.CastAt,
	}, nil
}

// HasVoted сообщает, подан ли уже бюллетень по должности.
func (s *BallotService) HasVoted(ctx context.Context, voterID, positionID int) (bool, error) {
	voted, err := s.voteRepo.Exists(ctx, voterID, positionID)
	if err != nil {
		return false, storeUnavailable(err)
	}
	return voted, nil
}

// BallotStatus возвращает id должностей выборов, по которым избиратель
// уже проголосовал (для отметок в интерфейсе голосования).
func (s *BallotService) BallotStatus(ctx context.Context, voterID, electionID int) ([]int, error) {
	ids, err := s.voteRepo.ListPositionIDsVoted(ctx, voterID, electionID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return ids, nil
}
