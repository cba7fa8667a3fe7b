package domain

const (
	EventNameSessionCreated    = "session.created"
	EventNamePhaseChanged      = "session.phase_changed"
	EventNameParticipantJoined = "participant.joined"
	EventNameAnswerSubmitted   = "answer.submitted"
)

type EventSessionCreated struct {
	Session SessionSummary
}

func (EventSessionCreated) Name() string { return EventNameSessionCreated }

type EventPhaseChanged struct {
	From    Phase
	Session SessionSummary
}

func (EventPhaseChanged) Name() string { return EventNamePhaseChanged }

type EventParticipantJoined struct {
	Session     SessionSummary
	Participant Participant
}

func (EventParticipantJoined) Name() string { return EventNameParticipantJoined }

type EventAnswerSubmitted struct {
	Session SessionSummary
	Answer  AnswerSubmission
	Correct bool
	Awarded int
}

func (EventAnswerSubmitted) Name() string { return EventNameAnswerSubmitted }
