package services

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
	"golang.org/x/sync/errgroup"
)

// TallyService детерминированно превращает записанные бюллетени в
// ранжированный результат. Никакого состояния, кроме прочитанного,
// не хранит: результат всегда производная от строк votes.
type TallyService struct {
	electionRepo  repositories.ElectionRepository
	positionRepo  repositories.PositionRepository
	candidateRepo repositories.CandidateRepository
	voteRepo      repositories.VoteRepository
}

func NewTallyService(
	electionRepo repositories.ElectionRepository,
	positionRepo repositories.PositionRepository,
	candidateRepo repositories.CandidateRepository,
	voteRepo repositories.VoteRepository,
) *TallyService {
	return &TallyService{
		electionRepo:  electionRepo,
		positionRepo:  positionRepo,
		candidateRepo: candidateRepo,
		voteRepo:      voteRepo,
	}
}

// TallyPosition считает итог по одной должности без проверки прав.
// Доступ снаружи гейтится в PositionResults/ElectionResults.
func (s *TallyService) TallyPosition(ctx context.Context, positionID int) (*models.TallyResult, error) {
	position, err := s.positionRepo.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, storeUnavailable(err)
	}

	approved := models.CandidateApproved
	candidates, err := s.candidateRepo.List(ctx, repositories.ListCandidatesFilter{
		PositionID: &positionID,
		Status:     &approved,
	})
	if err != nil {
		return nil, storeUnavailable(err)
	}

	votes, err := s.voteRepo.ListByPosition(ctx, positionID)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	return computeTally(position, candidates, votes), nil
}

// computeTally — чистая функция подсчёта.
//
// Каждый бюллетень даёт по одному голосу каждому из выбранных в нём
// кандидатов (голос не делится). Доля — от числа бюллетеней, а не от
// суммы отметок: «процент избирателей, выбравших кандидата».
// Ничьи разрешаются порядком подачи кандидатур (submitted_at, затем id),
// чтобы один и тот же набор бюллетеней всегда давал один и тот же итог.
func computeTally(position *models.Position, candidates []models.Candidate, votes []models.Vote) *models.TallyResult {
	counts := make(map[int]int, len(candidates))
	for _, c := range candidates {
		counts[c.ID] = 0 // кандидаты без голосов входят в итог с нулём
	}
	for _, v := range votes {
		for _, candidateID := range v.CandidateIDs {
			if _, ok := counts[candidateID]; ok {
				counts[candidateID]++
			}
		}
	}

	totalBallots := len(votes)

	ranked := make([]models.CandidateResult, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		voteCount := counts[c.ID]
		share := 0.0
		if totalBallots > 0 {
			share = math.Round(float64(voteCount)/float64(totalBallots)*1000) / 10
		}
		ranked = append(ranked, models.CandidateResult{
			CandidateID:  c.ID,
			VoteCount:    voteCount,
			SharePercent: share,
			Candidate:    &candidates[i],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].VoteCount != ranked[j].VoteCount {
			return ranked[i].VoteCount > ranked[j].VoteCount
		}
		ci, cj := ranked[i].Candidate, ranked[j].Candidate
		if !ci.SubmittedAt.Equal(cj.SubmittedAt) {
			return ci.SubmittedAt.Before(cj.SubmittedAt)
		}
		return ci.ID < cj.ID
	})

	for i := range ranked {
		ranked[i].Elected = i < position.SeatCount
	}

	return &models.TallyResult{
		PositionID:       position.ID,
		TotalBallots:     totalBallots,
		RankedCandidates: ranked,
	}
}

// PositionResults — итог по должности для внешнего вызова: не-админы
// видят его только после публикации результатов.
func (s *TallyService) PositionResults(ctx context.Context, caller *models.User, positionID int) (*models.TallyResult, error) {
	position, err := s.positionRepo.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, storeUnavailable(err)
	}

	if err := s.checkResultsVisible(ctx, caller, position.ElectionID); err != nil {
		return nil, err
	}
	return s.TallyPosition(ctx, positionID)
}

// ElectionResults считает итоги всех должностей выборов. Подсчёты
// независимы и выполняются параллельно; порядок ответа — order_index.
func (s *TallyService) ElectionResults(ctx context.Context, caller *models.User, electionID int) (*models.ElectionResult, error) {
	if err := s.checkResultsVisible(ctx, caller, electionID); err != nil {
		return nil, err
	}
	return s.electionResults(ctx, electionID)
}

func (s *TallyService) electionResults(ctx context.Context, electionID int) (*models.ElectionResult, error) {
	positions, err := s.positionRepo.ListByElection(ctx, electionID)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	results := make([]models.TallyResult, len(positions))
	g, gCtx := errgroup.WithContext(ctx)
	for i := range positions {
		i := i
		g.Go(func() error {
			result, tallyErr := s.TallyPosition(gCtx, positions[i].ID)
			if tallyErr != nil {
				return tallyErr
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.ElectionResult{
		ElectionID: electionID,
		Positions:  results,
	}, nil
}

func (s *TallyService) checkResultsVisible(ctx context.Context, caller *models.User, electionID int) error {
	if caller != nil && caller.Role == models.RoleAdmin {
		return nil
	}

	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		if errors.Is(err, repositories.ErrElectionNotFound) {
			return ErrElectionNotFound
		}
		return storeUnavailable(err)
	}
	if election.Phase != models.PhaseResultsPublished {
		return ErrResultsNotPublished
	}
	return nil
}
