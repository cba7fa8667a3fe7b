package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/victornm/quizflow/internal/domain"
	"github.com/victornm/quizflow/internal/errors"
	"github.com/victornm/quizflow/internal/event"
	"github.com/victornm/quizflow/internal/leaderboard"
	"github.com/victornm/quizflow/internal/repository"
)

const (
	// PointsPerCorrectAnswer is awarded for every correct answer.
	PointsPerCorrectAnswer = 100

	maxJoinCodeAttempts = 5
)

type Config struct {
	Repository repository.SessionRepository
	EventBus   *event.Bus
	Generator  Generator
	Clock      func() time.Time
}

// Service runs the session lifecycle. Every mutation of a session is
// serialized on that session's id.
type Service struct {
	repo  repository.SessionRepository
	eb    *event.Bus
	gen   Generator
	now   func() time.Time
	locks *keyedMutex
}

func NewService(c Config) *Service {
	s := &Service{
		repo:  c.Repository,
		eb:    c.EventBus,
		gen:   c.Generator,
		now:   c.Clock,
		locks: newKeyedMutex(),
	}

	if s.eb == nil {
		s.eb = event.NewBus()
	}
	if s.gen == nil {
		s.gen = RandomGenerator{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	return s
}

// CreateSessionRequest represents a request to create a new quiz session.
type CreateSessionRequest struct {
	// QuizID references the quiz content played in the session.
	QuizID string
	// TotalQuestions is the number of questions in the quiz.
	TotalQuestions int
}

// CreateSession creates a new session in the lobby phase.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.SessionSummary, error) {
	if strings.TrimSpace(req.QuizID) == "" {
		return nil, errors.BadRequest("quizId is required.")
	}

	if req.TotalQuestions <= 0 {
		return nil, errors.BadRequest("totalQuestions must be a positive integer.")
	}

	id, err := s.gen.SessionID()
	if err != nil {
		return nil, err
	}

	code, unlock, err := s.reserveJoinCode(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	ss := &domain.Session{
		ID:                   id,
		QuizID:               req.QuizID,
		Code:                 code,
		Phase:                domain.PhaseLobby,
		CurrentQuestionIndex: 0,
		TotalQuestions:       req.TotalQuestions,
		Participants:         []domain.Participant{},
		Answers:              []domain.AnswerSubmission{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if _, err := s.repo.Create(ctx, ss); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sum := ss.Summary()
	s.eb.Publish(ctx, domain.EventSessionCreated{Session: sum})
	slog.InfoContext(ctx, "session: created", "session_id", id, "quiz_id", req.QuizID, "total_questions", req.TotalQuestions)

	return &sum, nil
}

// reserveJoinCode picks a join code that no stored session uses. The code
// stays locked until the caller has stored its session and calls unlock.
func (s *Service) reserveJoinCode(ctx context.Context) (string, func(), error) {
	for range maxJoinCodeAttempts {
		code, err := s.gen.JoinCode()
		if err != nil {
			return "", nil, err
		}

		unlock := s.locks.Lock("code:" + strings.ToLower(code))

		_, err = s.repo.FindByCode(ctx, code)
		if stderrors.Is(err, repository.ErrSessionNotFound) {
			return code, unlock, nil
		}

		unlock()
		if err != nil {
			return "", nil, fmt.Errorf("check join code: %w", err)
		}
	}

	return "", nil, errors.New(errors.CodeInternal,
		errors.WithMessagef("no free join code after %d attempts", maxJoinCodeAttempts))
}

// GetSessionSummaryByID returns the summary of the session with the given id.
func (s *Service) GetSessionSummaryByID(ctx context.Context, id string) (*domain.SessionSummary, error) {
	ss, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sum := ss.Summary()
	return &sum, nil
}

// GetSessionSummaryByCode returns the summary of the session joinable with code.
func (s *Service) GetSessionSummaryByCode(ctx context.Context, code string) (*domain.SessionSummary, error) {
	ss, err := s.repo.FindByCode(ctx, code)
	if stderrors.Is(err, repository.ErrSessionNotFound) {
		return nil, errors.NotFound("Session not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("find session by code: %w", err)
	}

	sum := ss.Summary()
	return &sum, nil
}

type TransitionPhaseRequest struct {
	SessionID string
	Phase     domain.Phase
}

// TransitionPhase moves the session to the requested phase. Opening a question
// from the scoreboard advances to the next question, and opening a question
// always discards earlier answers recorded for it.
func (s *Service) TransitionPhase(ctx context.Context, req TransitionPhaseRequest) (*domain.SessionSummary, error) {
	defer s.locks.Lock(req.SessionID)()

	ss, err := s.findByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if !ss.Phase.CanTransitionTo(req.Phase) {
		return nil, errors.Conflict(
			fmt.Sprintf("Invalid phase transition from %s to %s.", ss.Phase, req.Phase),
			errors.WithDetails(map[string]domain.Phase{"from": ss.Phase, "to": req.Phase}),
		)
	}

	from := ss.Phase
	updated := ss.Clone()
	updated.Phase = req.Phase

	if req.Phase == domain.PhaseQuestionOpen {
		if from == domain.PhaseScoreboard {
			updated.CurrentQuestionIndex = min(ss.CurrentQuestionIndex+1, max(ss.TotalQuestions-1, 0))
		}

		answers := make([]domain.AnswerSubmission, 0, len(ss.Answers))
		for _, a := range ss.Answers {
			if a.QuestionIndex != updated.CurrentQuestionIndex {
				answers = append(answers, a)
			}
		}
		updated.Answers = answers
	}

	updated.UpdatedAt = s.now()

	if _, err := s.repo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	sum := updated.Summary()
	s.eb.Publish(ctx, domain.EventPhaseChanged{From: from, Session: sum})
	slog.InfoContext(ctx, "session: phase changed",
		"session_id", updated.ID,
		"from", from,
		"to", updated.Phase,
		"question_index", updated.CurrentQuestionIndex,
	)

	return &sum, nil
}

type JoinRequest struct {
	Code        string
	DisplayName string
}

type JoinResult struct {
	Session     domain.SessionSummary
	Participant domain.Participant
}

// JoinByCode adds a participant to the session with the given join code.
// Display names are unique within a session, ignoring case.
func (s *Service) JoinByCode(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, errors.BadRequest("code is required.")
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, errors.BadRequest("displayName is required.")
	}

	found, err := s.repo.FindByCode(ctx, req.Code)
	if stderrors.Is(err, repository.ErrSessionNotFound) {
		return nil, errors.NotFound("Invalid or expired session code.")
	}
	if err != nil {
		return nil, fmt.Errorf("find session by code: %w", err)
	}

	defer s.locks.Lock(found.ID)()

	// Re-read under the lock, the session may have changed since the code lookup.
	ss, err := s.findByID(ctx, found.ID)
	if err != nil {
		return nil, err
	}

	for _, p := range ss.Participants {
		if strings.EqualFold(p.DisplayName, name) {
			return nil, errors.Conflict("Display name is already in use for this session.")
		}
	}

	id, err := s.gen.ParticipantID()
	if err != nil {
		return nil, err
	}

	p := domain.Participant{
		ID:          id,
		DisplayName: name,
		Score:       0,
	}

	updated := ss.Clone()
	updated.Participants = append(updated.Participants, p)
	updated.UpdatedAt = s.now()

	if _, err := s.repo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	sum := updated.Summary()
	s.eb.Publish(ctx, domain.EventParticipantJoined{Session: sum, Participant: p})
	slog.InfoContext(ctx, "session: participant joined", "session_id", updated.ID, "participant_id", p.ID)

	return &JoinResult{
		Session:     sum,
		Participant: p,
	}, nil
}

type SubmitAnswerRequest struct {
	SessionID           string
	ParticipantID       string
	QuestionIndex       int
	SelectedOptionIndex int
	// IsCorrect is decided by the caller, which owns the quiz content.
	IsCorrect bool
}

// SubmitAnswer records a participant's answer to the open question. Each
// participant answers a question at most once.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*domain.SessionSummary, error) {
	defer s.locks.Lock(req.SessionID)()

	ss, err := s.findByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if ss.Phase != domain.PhaseQuestionOpen {
		return nil, errors.Conflict("Answers are only accepted while a question is open.")
	}

	if req.QuestionIndex != ss.CurrentQuestionIndex {
		return nil, errors.BadRequest("questionIndex does not match the active question.",
			errors.WithDetails(map[string]int{"questionIndex": req.QuestionIndex, "currentQuestionIndex": ss.CurrentQuestionIndex}))
	}

	i := ss.Participant(req.ParticipantID)
	if i == -1 {
		return nil, errors.NotFound("Participant not found in session.")
	}

	if ss.HasAnswered(req.ParticipantID, req.QuestionIndex) {
		return nil, errors.Conflict("Participant has already submitted an answer for this question.")
	}

	now := s.now()
	updated := ss.Clone()

	awarded := 0
	if req.IsCorrect {
		awarded = PointsPerCorrectAnswer
		updated.Participants[i].Score += awarded
	}

	a := domain.AnswerSubmission{
		ParticipantID:       req.ParticipantID,
		QuestionIndex:       req.QuestionIndex,
		SelectedOptionIndex: req.SelectedOptionIndex,
		AnsweredAt:          now,
	}
	updated.Answers = append(updated.Answers, a)
	updated.UpdatedAt = now

	if _, err := s.repo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	sum := updated.Summary()
	s.eb.Publish(ctx, domain.EventAnswerSubmitted{
		Session: sum,
		Answer:  a,
		Correct: req.IsCorrect,
		Awarded: awarded,
	})

	return &sum, nil
}

// GetLeaderboard returns the session's participants, highest score first.
func (s *Service) GetLeaderboard(ctx context.Context, id string) ([]domain.Participant, error) {
	ss, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return leaderboard.Rank(ss.Participants), nil
}

func (s *Service) findByID(ctx context.Context, id string) (*domain.Session, error) {
	ss, err := s.repo.FindByID(ctx, id)
	if stderrors.Is(err, repository.ErrSessionNotFound) {
		return nil, errors.NotFound("Session not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}

	return ss, nil
}
