//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/quizflow/internal/api"
	"github.com/victornm/quizflow/internal/domain"
)

const (
	httpAddr  = "http://localhost:8080"
	grpcAddr  = "localhost:8081"
	hostToken = "host-token"
)

func TestQuiz(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	requireServing(ctx, t)

	var (
		questions = 3
		users     = []string{"u1", "u2", "u3"}
		tokens    = make(map[string]string)
	)

	// Create new session
	var created struct{ Data domain.SessionSummary }
	call(ctx, t, http.MethodPost, "/api/admin/sessions", hostToken, map[string]any{
		"quizId":         "demo",
		"totalQuestions": questions,
	}, &created)
	session := created.Data

	// Everyone joins by code
	for _, u := range users {
		var joined struct{ Data api.JoinResponse }
		call(ctx, t, http.MethodPost, "/api/play/join", "", map[string]any{
			"code":        session.Code,
			"displayName": u,
		}, &joined)
		tokens[u] = joined.Data.ParticipantToken
	}

	// For each question, all users will submit answers concurrently
	for q := range questions {
		t.Logf("Starting question %d", q)
		call(ctx, t, http.MethodPost, "/api/admin/sessions/"+session.ID+"/phase", hostToken, map[string]any{"phase": "question-open"}, nil)

		var eg errgroup.Group
		for i, u := range users {
			eg.Go(func() error {
				return post(ctx, "/api/play/sessions/"+session.ID+"/answers", tokens[u], map[string]any{
					"questionIndex":       q,
					"selectedOptionIndex": 0,
					"isCorrect":           (i+q)%2 == 0,
				})
			})
		}
		require.NoError(t, eg.Wait())

		call(ctx, t, http.MethodPost, "/api/admin/sessions/"+session.ID+"/phase", hostToken, map[string]any{"phase": "question-closed"}, nil)
		call(ctx, t, http.MethodPost, "/api/admin/sessions/"+session.ID+"/phase", hostToken, map[string]any{"phase": "scoreboard"}, nil)

		var lb struct{ Data []domain.Participant }
		call(ctx, t, http.MethodGet, "/api/admin/sessions/"+session.ID+"/leaderboard", hostToken, nil, &lb)
		t.Logf("leaderboard:\n%s", formatLeaderboard(lb.Data))
	}

	call(ctx, t, http.MethodPost, "/api/admin/sessions/"+session.ID+"/phase", hostToken, map[string]any{"phase": "finished"}, nil)
}

func requireServing(ctx context.Context, t *testing.T) {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func call(ctx context.Context, t *testing.T, method, path, token string, body, out any) {
	t.Helper()

	resp, err := send(ctx, method, path, token, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Less(t, resp.StatusCode, 300, "%s %s", method, path)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func post(ctx context.Context, path, token string, body any) error {
	resp, err := send(ctx, http.MethodPost, path, token, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
	}
	return nil
}

func send(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, httpAddr+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return http.DefaultClient.Do(req)
}

func formatLeaderboard(ps []domain.Participant) string {
	var s string
	for _, p := range ps {
		s += fmt.Sprintf("%s: %d\n", p.DisplayName, p.Score)
	}
	return s
}
