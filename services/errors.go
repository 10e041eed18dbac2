package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound          = errors.New("requested resource not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrElectionNotFound  = errors.New("election not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrCandidateNotFound = errors.New("candidate not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed         = errors.New("validation failed")
	ErrPasswordTooShort         = errors.New("password is too short")
	ErrElectionTitleRequired    = errors.New("election title is required")
	ErrElectionInvalidDates     = errors.New("candidacy deadline must precede start date, start date must precede end date")
	ErrPositionTitleRequired    = errors.New("position title is required")
	ErrPositionInvalidSeats     = errors.New("position seat count must be at least 1")
	ErrStatementRequired        = errors.New("candidacy statement is required")
	ErrRejectionReasonRequired  = errors.New("a non-empty reason is required to reject a candidacy")
	ErrElectionWithoutPositions = errors.New("election must have at least one position before publishing")

	// Ошибки жизненного цикла и временных окон
	ErrInvalidState         = errors.New("operation not valid in the current election phase")
	ErrWindowClosed         = errors.New("candidacy window is closed")
	ErrVotingClosed         = errors.New("voting is not open")
	ErrResultsNotPublished  = errors.New("results are not published yet")
	ErrElectionNotEditable  = errors.New("election can only be modified while in draft")
	ErrCandidacyGateNotMet  = errors.New("candidacy deadline has not passed yet")
	ErrElectionHasVotes     = errors.New("election has recorded votes and cannot be deleted")

	// Ошибки конфликтов
	ErrUserEmailConflict   = errors.New("email address is already in use")
	ErrDuplicateCandidacy  = errors.New("user has already submitted a candidacy for this position")
	ErrAlreadyReviewed     = errors.New("candidacy has already been reviewed")
	ErrAlreadyVoted        = errors.New("voter has already cast a ballot for this position")

	// Ошибки бюллетеня
	ErrInvalidBallot       = errors.New("ballot is malformed")
	ErrIneligibleCandidate = errors.New("ballot references a candidate that is not approved for this position")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthorized      = errors.New("operation not allowed for the current user")
	ErrAccountNotApproved = errors.New("account is not approved")

	// Инфраструктура: единственная ошибка, которую клиенту имеет смысл
	// повторить. Никогда не превращается в успех с подменными данными.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)
