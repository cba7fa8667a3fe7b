package telemetry

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/victornm/quizflow/internal/domain"
	"github.com/victornm/quizflow/internal/event"
)

// SessionMetrics counts session lifecycle events.
type SessionMetrics struct {
	SessionsCreated    prometheus.Counter
	PhaseTransitions   *prometheus.CounterVec
	ParticipantsJoined prometheus.Counter
	AnswersSubmitted   *prometheus.CounterVec
}

// RegisterSessionMetrics registers the session counters on reg and keeps them
// up to date from the events published on eb.
func RegisterSessionMetrics(eb *event.Bus, reg prometheus.Registerer) (*SessionMetrics, error) {
	m := &SessionMetrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "sessions_created_total",
			Help:      "Number of quiz sessions created.",
		}),
		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "phase_transitions_total",
			Help:      "Number of session phase transitions.",
		}, []string{"from", "to"}),
		ParticipantsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "participants_joined_total",
			Help:      "Number of participants who joined a session.",
		}),
		AnswersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "answers_submitted_total",
			Help:      "Number of accepted answers.",
		}, []string{"correct"}),
	}

	for _, c := range []prometheus.Collector{m.SessionsCreated, m.PhaseTransitions, m.ParticipantsJoined, m.AnswersSubmitted} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	eb.Subscribe(domain.EventNameSessionCreated, func(context.Context, event.Event) error {
		m.SessionsCreated.Inc()
		return nil
	})
	eb.Subscribe(domain.EventNamePhaseChanged, func(_ context.Context, e event.Event) error {
		pc := e.(domain.EventPhaseChanged)
		m.PhaseTransitions.WithLabelValues(pc.From.String(), pc.Session.Phase.String()).Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameParticipantJoined, func(context.Context, event.Event) error {
		m.ParticipantsJoined.Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameAnswerSubmitted, func(_ context.Context, e event.Event) error {
		as := e.(domain.EventAnswerSubmitted)
		m.AnswersSubmitted.WithLabelValues(strconv.FormatBool(as.Correct)).Inc()
		return nil
	})

	return m, nil
}
