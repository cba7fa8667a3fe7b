package domain

import (
	"slices"
	"time"
)

// Phase is the stage of a session's lifecycle.
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseQuestionOpen   Phase = "question-open"
	PhaseQuestionClosed Phase = "question-closed"
	PhaseScoreboard     Phase = "scoreboard"
	PhaseFinished       Phase = "finished"
)

var transitions = map[Phase][]Phase{
	PhaseLobby:          {PhaseQuestionOpen},
	PhaseQuestionOpen:   {PhaseQuestionClosed},
	PhaseQuestionClosed: {PhaseScoreboard},
	PhaseScoreboard:     {PhaseQuestionOpen, PhaseFinished},
	PhaseFinished:       {},
}

// ParsePhase returns the phase named s, or false if s names no phase.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(s)
	_, ok := transitions[p]
	return p, ok
}

// CanTransitionTo reports whether target is a legal next phase.
func (p Phase) CanTransitionTo(target Phase) bool {
	return slices.Contains(transitions[p], target)
}

func (p Phase) String() string {
	return string(p)
}

// Session represents a live quiz session.
type Session struct {
	ID                   string             `json:"id"`
	QuizID               string             `json:"quizId"`
	Code                 string             `json:"code"`
	Phase                Phase              `json:"phase"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	TotalQuestions       int                `json:"totalQuestions"`
	Participants         []Participant      `json:"participants"`
	Answers              []AnswerSubmission `json:"answers"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// Participant is a player who joined a session by code.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

type AnswerSubmission struct {
	ParticipantID       string    `json:"participantId"`
	QuestionIndex       int       `json:"questionIndex"`
	SelectedOptionIndex int       `json:"selectedOptionIndex"`
	AnsweredAt          time.Time `json:"answeredAt"`
}

// SessionSummary is the client-safe view of a session. It is never stored.
type SessionSummary struct {
	ID                   string `json:"id"`
	QuizID               string `json:"quizId"`
	Code                 string `json:"code"`
	Phase                Phase  `json:"phase"`
	CurrentQuestionIndex int    `json:"currentQuestionIndex"`
	TotalQuestions       int    `json:"totalQuestions"`
	ParticipantCount     int    `json:"participantCount"`
	ResponsesCount       int    `json:"responsesCount"`
}

// Summary projects the session into its client-safe view.
func (s *Session) Summary() SessionSummary {
	responses := 0
	for _, a := range s.Answers {
		if a.QuestionIndex == s.CurrentQuestionIndex {
			responses++
		}
	}

	return SessionSummary{
		ID:                   s.ID,
		QuizID:               s.QuizID,
		Code:                 s.Code,
		Phase:                s.Phase,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TotalQuestions:       s.TotalQuestions,
		ParticipantCount:     len(s.Participants),
		ResponsesCount:       responses,
	}
}

// Clone returns a deep copy, so the copy's collections can be changed without touching s.
func (s *Session) Clone() *Session {
	c := *s
	c.Participants = slices.Clone(s.Participants)
	c.Answers = slices.Clone(s.Answers)
	return &c
}

// Participant returns the index of the participant with the given id, or -1.
func (s *Session) Participant(id string) int {
	return slices.IndexFunc(s.Participants, func(p Participant) bool {
		return p.ID == id
	})
}

// HasAnswered reports whether the participant already answered the question.
func (s *Session) HasAnswered(participantID string, questionIndex int) bool {
	return slices.ContainsFunc(s.Answers, func(a AnswerSubmission) bool {
		return a.ParticipantID == participantID && a.QuestionIndex == questionIndex
	})
}
