package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
	"github.com/Dosada05/voting-system/storage"
)

// ReviewDecision — решение админа по заявке.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// CandidacyService — воронка кандидатур: подача в окне приёма,
// единственное ревью админом, терминальные approved/rejected.
// Отклонённая пара (user, position) повторно не подаётся.
type CandidacyService struct {
	candidateRepo repositories.CandidateRepository
	positionRepo  repositories.PositionRepository
	electionRepo  repositories.ElectionRepository
	userRepo      repositories.UserRepository
	uploader      storage.FileUploader
	emailService  *EmailService
	logger        *slog.Logger
}

func NewCandidacyService(
	candidateRepo repositories.CandidateRepository,
	positionRepo repositories.PositionRepository,
	electionRepo repositories.ElectionRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	emailService *EmailService,
	logger *slog.Logger,
) *CandidacyService {
	return &CandidacyService{
		candidateRepo: candidateRepo,
		positionRepo:  positionRepo,
		electionRepo:  electionRepo,
		userRepo:      userRepo,
		uploader:      uploader,
		emailService:  emailService,
		logger:        logger,
	}
}

// Submit подаёт кандидатуру. Все проверки продублированы на сервере:
// клиентским гейтам (дедлайн, заполненность полей) не доверяем,
// роль и статус перечитываются из хранилища, не из токена.
func (s *CandidacyService) Submit(ctx context.Context, caller *models.User, positionID int, statement string) (*models.Candidate, error) {
	user, err := resolveCaller(ctx, s.userRepo, caller)
	if err != nil {
		return nil, err
	}
	if !callerIsApproved(user, models.RoleCandidate) {
		return nil, ErrNotAuthorized
	}
	if strings.TrimSpace(statement) == "" {
		return nil, ErrStatementRequired
	}

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
	if election.Phase != models.PhaseOpenForCandidacy {
		return nil, ErrWindowClosed
	}
	// Дедлайн может истечь раньше, чем админ откроет голосование:
	// фаза ещё open_for_candidacy, но окно уже закрыто.
	if !time.Now().Before(election.CandidacyDeadline) {
		return nil, ErrWindowClosed
	}

	candidate := &models.Candidate{
		UserID:     user.ID,
		PositionID: positionID,
		Statement:  statement,
		Status:     models.CandidatePending,
	}
	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		if errors.Is(err, repositories.ErrCandidateDuplicate) {
			return nil, ErrDuplicateCandidacy
		}
		return nil, storeUnavailable(err)
	}
	return candidate, nil
}

// Review фиксирует решение админа. reject требует непустую причину —
// это правило живёт здесь, а не только в UI.
func (s *CandidacyService) Review(ctx context.Context, caller *models.User, candidateID int, decision ReviewDecision, reason string) (*models.Candidate, error) {
	reviewer, err := resolveCaller(ctx, s.userRepo, caller)
	if err != nil {
		return nil, err
	}
	if !callerIsApproved(reviewer, models.RoleAdmin) {
		return nil, ErrNotAuthorized
	}

	var status models.CandidateStatus
	var rejectionReason *string
	switch decision {
	case DecisionApprove:
		status = models.CandidateApproved
	case DecisionReject:
		if strings.TrimSpace(reason) == "" {
			return nil, ErrRejectionReasonRequired
		}
		status = models.CandidateRejected
		rejectionReason = &reason
	default:
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrValidationFailed)
	}

	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, storeUnavailable(err)
	}
	if candidate.Status != models.CandidatePending {
		return nil, ErrAlreadyReviewed
	}

	reviewedAt := time.Now()
	if err := s.candidateRepo.UpdateReview(ctx, candidateID, status, rejectionReason, reviewedAt); err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			// Условный UPDATE не нашёл pending-строку: ревью уже прошло.
			return nil, ErrAlreadyReviewed
		}
		return nil, storeUnavailable(err)
	}

	candidate.Status = status
	candidate.RejectionReason = rejectionReason
	candidate.ReviewedAt = &reviewedAt

	s.notifyDecision(ctx, candidate)

	return candidate, nil
}

// notifyDecision отправляет кандидату письмо о решении. Неудача —
// не ошибка операции, только запись в лог.
func (s *CandidacyService) notifyDecision(ctx context.Context, candidate *models.Candidate) {
	if s.emailService == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, candidate.UserID)
	if err != nil {
		s.logger.Error("failed to load candidate user for notification",
			slog.Int("candidate_id", candidate.ID), slog.Any("error", err))
		return
	}
	if err := s.emailService.SendCandidacyDecision(user, candidate); err != nil {
		s.logger.Error("failed to send candidacy decision email",
			slog.Int("candidate_id", candidate.ID), slog.Any("error", err))
	}
}

// ListByPosition возвращает кандидатуры должности. Админ видит все;
// остальные — только approved.
func (s *CandidacyService) ListByPosition(ctx context.Context, caller *models.User, positionID int) ([]models.Candidate, error) {
	filter := repositories.ListCandidatesFilter{PositionID: &positionID}
	if caller == nil || caller.Role != models.RoleAdmin {
		approved := models.CandidateApproved
		filter.Status = &approved
	}

	candidates, err := s.candidateRepo.List(ctx, filter)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	s.attachFileURLs(candidates)
	return candidates, nil
}

// ListByUser возвращает кандидатуры пользователя (его личный кабинет).
func (s *CandidacyService) ListByUser(ctx context.Context, userID int) ([]models.Candidate, error) {
	candidates, err := s.candidateRepo.List(ctx, repositories.ListCandidatesFilter{UserID: &userID})
	if err != nil {
		return nil, storeUnavailable(err)
	}
	s.attachFileURLs(candidates)
	return candidates, nil
}

// UploadPhoto сохраняет фото кандидата в объектное хранилище.
// Допустимо, пока выборы не дошли до voting_open.
func (s *CandidacyService) UploadPhoto(ctx context.Context, caller *models.User, candidateID int, contentType string, reader io.Reader) (*models.Candidate, error) {
	return s.uploadFile(ctx, caller, candidateID, "photo", contentType, reader)
}

// UploadDocument сохраняет программный документ кандидата.
func (s *CandidacyService) UploadDocument(ctx context.Context, caller *models.User, candidateID int, contentType string, reader io.Reader) (*models.Candidate, error) {
	return s.uploadFile(ctx, caller, candidateID, "document", contentType, reader)
}

func (s *CandidacyService) uploadFile(ctx context.Context, caller *models.User, candidateID int, kind, contentType string, reader io.Reader) (*models.Candidate, error) {
	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, storeUnavailable(err)
	}

	user, err := resolveCaller(ctx, s.userRepo, caller)
	if err != nil {
		return nil, err
	}
	isOwner := user.ID == candidate.UserID && user.Status == models.UserStatusApproved
	isAdmin := callerIsApproved(user, models.RoleAdmin)
	if !isOwner && !isAdmin {
		return nil, ErrNotAuthorized
	}
	if candidate.Status == models.CandidateRejected {
		return nil, ErrAlreadyReviewed
	}

	position, err := s.positionRepo.GetByID(ctx, candidate.PositionID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	election, err := s.electionRepo.GetByID(ctx, position.ElectionID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	switch election.Phase {
	case models.PhaseDraft, models.PhaseOpenForCandidacy:
	default:
		return nil, invalidState(election.Phase)
	}

	key := fmt.Sprintf("candidates/%d/%s", candidateID, kind)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload candidate %s: %w", kind, err)
	}

	switch kind {
	case "photo":
		err = s.candidateRepo.UpdatePhotoKey(ctx, candidateID, &result.Key)
		candidate.PhotoKey = &result.Key
	case "document":
		err = s.candidateRepo.UpdateDocumentKey(ctx, candidateID, &result.Key)
		candidate.DocumentKey = &result.Key
	}
	if err != nil {
		return nil, storeUnavailable(err)
	}

	s.attachFileURLsOne(candidate)
	return candidate, nil
}

func (s *CandidacyService) attachFileURLs(candidates []models.Candidate) {
	for i := range candidates {
		s.attachFileURLsOne(&candidates[i])
	}
}

func (s *CandidacyService) attachFileURLsOne(c *models.Candidate) {
	if s.uploader == nil {
		return
	}
	if c.PhotoKey != nil {
		url := s.uploader.GetPublicURL(*c.PhotoKey)
		c.PhotoURL = &url
	}
	if c.DocumentKey != nil {
		url := s.uploader.GetPublicURL(*c.DocumentKey)
		c.DocumentURL = &url
	}
}
