package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/voting-system/live"
	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
)

// ElectionService — реестр выборов. Единственный владелец поля phase:
// никакой другой компонент его не мутирует. Жизненный цикл строго
// линейный, каждый переход записывается строкой аудита в той же
// транзакции, что и смена фазы.
type ElectionService struct {
	tx             repositories.TxRunner
	electionRepo   repositories.ElectionRepository
	positionRepo   repositories.PositionRepository
	voteRepo       repositories.VoteRepository
	transitionRepo repositories.TransitionRepository
	tallyService   *TallyService
	hub            *live.Hub
	logger         *slog.Logger
}

func NewElectionService(
	tx repositories.TxRunner,
	electionRepo repositories.ElectionRepository,
	positionRepo repositories.PositionRepository,
	voteRepo repositories.VoteRepository,
	transitionRepo repositories.TransitionRepository,
	tallyService *TallyService,
	hub *live.Hub,
	logger *slog.Logger,
) *ElectionService {
	return &ElectionService{
		tx:             tx,
		electionRepo:   electionRepo,
		positionRepo:   positionRepo,
		voteRepo:       voteRepo,
		transitionRepo: transitionRepo,
		tallyService:   tallyService,
		hub:            hub,
		logger:         logger,
	}
}

type CreateElectionInput struct {
	Title             string    `json:"title"`
	Description       *string   `json:"description"`
	CandidacyDeadline time.Time `json:"candidacy_deadline"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
}

type PositionInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	SeatCount   int     `json:"seat_count"`
	OrderIndex  int     `json:"order_index"`
}

func validateElectionDates(candidacyDeadline, startDate, endDate time.Time) error {
	if !candidacyDeadline.Before(startDate) || !startDate.Before(endDate) {
		return ErrElectionInvalidDates
	}
	return nil
}

func (s *ElectionService) Create(ctx context.Context, createdBy int, input CreateElectionInput) (*models.Election, error) {
	if input.Title == "" {
		return nil, ErrElectionTitleRequired
	}
	if err := validateElectionDates(input.CandidacyDeadline, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	election := &models.Election{
		Title:             input.Title,
		Description:       input.Description,
		CandidacyDeadline: input.CandidacyDeadline,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		Phase:             models.PhaseDraft,
		CreatedBy:         createdBy,
	}
	if err := s.electionRepo.Create(ctx, election); err != nil {
		return nil, storeUnavailable(err)
	}
	return election, nil
}

func (s *ElectionService) GetByID(ctx context.Context, id int) (*models.Election, error) {
	election, err := s.electionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrElectionNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, storeUnavailable(err)
	}
	return election, nil
}

// GetWithPositions возвращает выборы вместе с должностями,
// упорядоченными по order_index.
func (s *ElectionService) GetWithPositions(ctx context.Context, id int) (*models.Election, error) {
	election, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	positions, err := s.positionRepo.ListByElection(ctx, id)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	election.Positions = positions
	return election, nil
}

func (s *ElectionService) List(ctx context.Context, filter repositories.ListElectionsFilter) ([]models.Election, error) {
	elections, err := s.electionRepo.List(ctx, filter)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return elections, nil
}

// UpdateDetails меняет заголовок и даты. Разрешено только в draft.
func (s *ElectionService) UpdateDetails(ctx context.Context, id int, input CreateElectionInput) (*models.Election, error) {
	election, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if election.Phase != models.PhaseDraft {
		return nil, ErrElectionNotEditable
	}
	if input.Title == "" {
		return nil, ErrElectionTitleRequired
	}
	if err := validateElectionDates(input.CandidacyDeadline, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	election.Title = input.Title
	election.Description = input.Description
	election.CandidacyDeadline = input.CandidacyDeadline
	election.StartDate = input.StartDate
	election.EndDate = input.EndDate

	if err := s.electionRepo.UpdateDetails(ctx, election); err != nil {
		if errors.Is(err, repositories.ErrElectionNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, storeUnavailable(err)
	}
	return election, nil
}

// Delete удаляет выборы. Разрешено только в draft; выборы с хотя бы
// одним записанным голосом не удаляются никогда (страховка на случай
// рассинхронизации фазы, ограничение в БД дублирует эту проверку).
func (s *ElectionService) Delete(ctx context.Context, id int) error {
	election, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if election.Phase != models.PhaseDraft {
		return invalidState(election.Phase)
	}

	hasVotes, err := s.voteRepo.ExistsByElection(ctx, id)
	if err != nil {
		return storeUnavailable(err)
	}
	if hasVotes {
		return ErrElectionHasVotes
	}

	if err := s.electionRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrElectionNotFound):
			return ErrElectionNotFound
		case errors.Is(err, repositories.ErrElectionInUse):
			return ErrElectionHasVotes
		default:
			return storeUnavailable(err)
		}
	}
	return nil
}

// AddPosition добавляет должность. Состав должностей фиксируется
// при выходе из draft.
func (s *ElectionService) AddPosition(ctx context.Context, electionID int, input PositionInput) (*models.Position, error) {
	election, err := s.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Phase != models.PhaseDraft {
		return nil, ErrElectionNotEditable
	}
	if input.Title == "" {
		return nil, ErrPositionTitleRequired
	}
	if input.SeatCount < 1 {
		return nil, ErrPositionInvalidSeats
	}

	position := &models.Position{
		ElectionID:  electionID,
		Title:       input.Title,
		Description: input.Description,
		SeatCount:   input.SeatCount,
		OrderIndex:  input.OrderIndex,
	}
	if err := s.positionRepo.Create(ctx, position); err != nil {
		return nil, storeUnavailable(err)
	}
	return position, nil
}

func (s *ElectionService) UpdatePosition(ctx context.Context, positionID int, input PositionInput) (*models.Position, error) {
	position, err := s.positionRepo.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, storeUnavailable(err)
	}

	election, err := s.GetByID(ctx, position.ElectionID)
	if err != nil {
		return nil, err
	}
	if election.Phase != models.PhaseDraft {
		return nil, ErrElectionNotEditable
	}
	if input.Title == "" {
		return nil, ErrPositionTitleRequired
	}
	if input.SeatCount < 1 {
		return nil, ErrPositionInvalidSeats
	}

	position.Title = input.Title
	position.Description = input.Description
	position.SeatCount = input.SeatCount
	position.OrderIndex = input.OrderIndex

	if err := s.positionRepo.Update(ctx, position); err != nil {
		return nil, storeUnavailable(err)
	}
	return position, nil
}

func (s *ElectionService) DeletePosition(ctx context.Context, positionID int) error {
	position, err := s.positionRepo.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPositionNotFound) {
			return ErrPositionNotFound
		}
		return storeUnavailable(err)
	}

	election, err := s.GetByID(ctx, position.ElectionID)
	if err != nil {
		return err
	}
	if election.Phase != models.PhaseDraft {
		return ErrElectionNotEditable
	}

	if err := s.positionRepo.Delete(ctx, positionID); err != nil {
		return storeUnavailable(err)
	}
	return nil
}

// Publish: draft -> open_for_candidacy. Требует хотя бы одну должность.
func (s *ElectionService) Publish(ctx context.Context, actorID, electionID int) (*models.Election, error) {
	positions, err := s.positionRepo.ListByElection(ctx, electionID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if len(positions) == 0 {
		return nil, ErrElectionWithoutPositions
	}
	for _, p := range positions {
		if p.SeatCount < 1 {
			return nil, ErrPositionInvalidSeats
		}
	}

	return s.transition(ctx, actorID, electionID, models.PhaseDraft, models.PhaseOpenForCandidacy)
}

// OpenVoting: open_for_candidacy -> voting_open. Срок подачи кандидатур
// проверяется на сервере; override — явное решение администратора
// открыть голосование до истечения срока.
func (s *ElectionService) OpenVoting(ctx context.Context, actorID, electionID int, override bool) (*models.Election, error) {
	election, err := s.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if !override && time.Now().Before(election.CandidacyDeadline) {
		return nil, ErrCandidacyGateNotMet
	}

	return s.transition(ctx, actorID, electionID, models.PhaseOpenForCandidacy, models.PhaseVotingOpen)
}

// CloseVoting: voting_open -> voting_closed. Повторное закрытие —
// no-op; попытка из более ранней фазы — InvalidState.
func (s *ElectionService) CloseVoting(ctx context.Context, actorID, electionID int) (*models.Election, error) {
	election, err := s.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Phase == models.PhaseVotingClosed {
		return election, nil
	}

	return s.transition(ctx, actorID, electionID, models.PhaseVotingOpen, models.PhaseVotingClosed)
}

// PublishResults: voting_closed -> results_published. Итог считается
// до перехода: не удался подсчёт — фаза не меняется, админ повторяет
// вызов. Голоса неизменяемы и голосование закрыто, поэтому итог,
// посчитанный до перехода, совпадает с итогом после него.
func (s *ElectionService) PublishResults(ctx context.Context, actorID, electionID int) (*models.Election, error) {
	current, err := s.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if current.Phase != models.PhaseVotingClosed {
		return nil, invalidState(current.Phase)
	}

	results, err := s.tallyService.electionResults(ctx, electionID)
	if err != nil {
		return nil, err
	}

	election, err := s.transition(ctx, actorID, electionID, models.PhaseVotingClosed, models.PhaseResultsPublished)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastEvent(electionID, live.EventResultsPublished, results)

	return election, nil
}

// ListTransitions возвращает журнал аудита переходов фаз.
func (s *ElectionService) ListTransitions(ctx context.Context, electionID int) ([]models.PhaseTransition, error) {
	if _, err := s.GetByID(ctx, electionID); err != nil {
		return nil, err
	}
	transitions, err := s.transitionRepo.ListByElection(ctx, electionID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return transitions, nil
}

// transition выполняет переход фазы и запись аудита в одной транзакции.
// Условный UPDATE (WHERE phase = from) сериализует конкурентные
// переходы: из двух одновременных вызовов пройдёт ровно один.
func (s *ElectionService) transition(ctx context.Context, actorID, electionID int, from, to models.ElectionPhase) (*models.Election, error) {
	election, err := s.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Phase != from {
		return nil, invalidState(election.Phase)
	}

	err = s.tx.WithTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if updErr := s.electionRepo.UpdatePhase(ctx, exec, electionID, from, to); updErr != nil {
			return updErr
		}
		return s.transitionRepo.Create(ctx, exec, &models.PhaseTransition{
			ElectionID: electionID,
			FromPhase:  from,
			ToPhase:    to,
			ActorID:    actorID,
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrElectionPhaseChanged) {
			return nil, fmt.Errorf("%w (expected phase: %s)", ErrInvalidState, from)
		}
		return nil, storeUnavailable(err)
	}

	election.Phase = to
	s.logger.Info("election phase changed",
		slog.Int("election_id", electionID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.Int("actor_id", actorID),
	)
	s.hub.BroadcastEvent(electionID, live.EventPhaseChanged, map[string]string{
		"from": string(from),
		"to":   string(to),
	})

	return election, nil
}
