package telemetry_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizflow/internal/domain"
	"github.com/victornm/quizflow/internal/event"
	"github.com/victornm/quizflow/internal/telemetry"
)

func TestRegisterSessionMetrics(t *testing.T) {
	eb := event.NewBus()
	reg := prometheus.NewRegistry()

	m, err := telemetry.RegisterSessionMetrics(eb, reg)
	require.NoError(t, err)

	ctx := context.Background()
	eb.Publish(ctx, domain.EventSessionCreated{})
	eb.Publish(ctx, domain.EventParticipantJoined{})
	eb.Publish(ctx, domain.EventParticipantJoined{})
	eb.Publish(ctx, domain.EventPhaseChanged{
		From:    domain.PhaseLobby,
		Session: domain.SessionSummary{Phase: domain.PhaseQuestionOpen},
	})
	eb.Publish(ctx, domain.EventAnswerSubmitted{Correct: true})
	eb.Publish(ctx, domain.EventAnswerSubmitted{Correct: false})
	eb.Publish(ctx, domain.EventAnswerSubmitted{Correct: true})
	eb.Stop()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ParticipantsJoined))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseTransitions.WithLabelValues("lobby", "question-open")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnswersSubmitted.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersSubmitted.WithLabelValues("false")))
}

func TestRegisterSessionMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := telemetry.RegisterSessionMetrics(event.NewBus(), reg)
	require.NoError(t, err)

	_, err = telemetry.RegisterSessionMetrics(event.NewBus(), reg)
	require.Error(t, err)
}
