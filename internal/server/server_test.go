package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizflow/internal/repository"
	"github.com/victornm/quizflow/internal/session"
)

func TestInit_Memory(t *testing.T) {
	s, err := Init(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(s.eb.Stop)

	assert.IsType(t, &repository.Memory{}, s.infra.sessions)

	for _, path := range []string{"/api", "/metrics"} {
		resp := httptest.NewRecorder()
		s.http.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}
}

func TestInit_Twice(t *testing.T) {
	for range 2 {
		s, err := Init(DefaultConfig())
		require.NoError(t, err)
		t.Cleanup(s.eb.Stop)
	}
}

func TestInit_MetricsCountSessions(t *testing.T) {
	s, err := Init(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(s.eb.Stop)

	_, err = s.service.session.CreateSession(context.Background(), session.CreateSessionRequest{QuizID: "quiz-1", TotalQuestions: 3})
	require.NoError(t, err)
	s.eb.Stop()

	resp := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "quiz_sessions_created_total 1")
}

func TestInitInfra(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T) Config
		assert  func(t *testing.T, s *Server, err error)
	}{
		"redis driver connects and stores sessions in redis": {
			arrange: func(t *testing.T) Config {
				rs := miniredis.RunT(t)
				c := DefaultConfig()
				c.Storage.Driver = StorageRedis
				c.Redis.Session.Addrs = []string{rs.Addr()}
				return c
			},

			assert: func(t *testing.T, s *Server, err error) {
				require.NoError(t, err)
				t.Cleanup(func() { s.infra.redis.Close() })
				assert.IsType(t, &repository.Redis{}, s.infra.sessions)
			},
		},

		"unknown driver is rejected": {
			arrange: func(t *testing.T) Config {
				c := DefaultConfig()
				c.Storage.Driver = "cassandra"
				return c
			},

			assert: func(t *testing.T, _ *Server, err error) {
				require.ErrorContains(t, err, "cassandra")
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := &Server{c: tt.arrange(t)}
			err := s.initInfra()
			tt.assert(t, s, err)
		})
	}
}
