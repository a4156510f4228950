// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

const (
	testPrimary   = "anthropic/claude-4.5-sonnet"
	testSecondary = "deepseek-ai/deepseek-v3.1"
)

// predictionStub serves the create-then-poll API for a fixed set of models.
// Each model gets a sequence of poll outcomes, one per prediction created.
type predictionStub struct {
	srv     *httptest.Server
	mux     *http.ServeMux
	creates map[string]*atomic.Int32
}

type pollOutcome struct {
	status string
	output any
	errMsg string
}

func newPredictionStub(t *testing.T) *predictionStub {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &predictionStub{srv: srv, mux: mux, creates: map[string]*atomic.Int32{}}
}

// model registers a model whose i-th created prediction resolves to
// outcomes[i].
func (s *predictionStub) model(t *testing.T, name string, outcomes ...pollOutcome) {
	t.Helper()
	var count atomic.Int32
	s.creates[name] = &count

	s.mux.HandleFunc("POST /"+name+"/predictions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		n := count.Add(1)
		id := fmt.Sprintf("%s-%d", name, n)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     id,
			"status": "starting",
			"urls":   map[string]string{"get": s.srv.URL + "/polls/" + id},
		})
	})
	for i, out := range outcomes {
		id := fmt.Sprintf("%s-%d", name, i+1)
		s.mux.HandleFunc("GET /polls/"+id, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"id": id, "status": out.status, "output": out.output, "error": out.errMsg})
		})
	}
}

func (s *predictionStub) client(cfg types.LLMConfig, progress *bytes.Buffer) *Client {
	cfg.APIToken = "test-token"
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Millisecond
	}
	c := New(cfg, s.srv.Client(), progress)
	c.APIBase = s.srv.URL
	return c
}

func TestCompletePrimarySucceeds(t *testing.T) {
	stub := newPredictionStub(t)
	stub.model(t, testPrimary, pollOutcome{status: "succeeded", output: []any{"Hello, ", "world."}})

	c := stub.client(types.LLMConfig{PrimaryModel: testPrimary, SecondaryModel: testSecondary}, bytes.NewBuffer(nil))
	out, err := c.Complete(context.Background(), "You are a test.", "Say hello.")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", out, "chunked output is concatenated")
	assert.Equal(t, int32(1), stub.creates[testPrimary].Load())
}

func TestCompletePollsUntilDone(t *testing.T) {
	stub := newPredictionStub(t)
	polls := 0
	stub.mux.HandleFunc("POST /"+testPrimary+"/predictions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "p1", "status": "starting",
			"urls": map[string]string{"get": stub.srv.URL + "/slow"}})
	})
	stub.mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "processing"
		if polls >= 3 {
			status = "succeeded"
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "p1", "status": status, "output": "done"})
	})

	c := stub.client(types.LLMConfig{PrimaryModel: testPrimary}, bytes.NewBuffer(nil))
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 3, polls)
}

func TestCompleteFallsBackToSecondary(t *testing.T) {
	stub := newPredictionStub(t)
	stub.model(t, testPrimary, pollOutcome{status: "failed", errMsg: "model exploded"})
	stub.model(t, testSecondary, pollOutcome{status: "succeeded", output: "secondary says hi"})

	var progress bytes.Buffer
	c := stub.client(types.LLMConfig{PrimaryModel: testPrimary, SecondaryModel: testSecondary}, &progress)
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "secondary says hi", out)
	assert.Contains(t, progress.String(), "warning: model "+testPrimary+" failed")
	assert.Equal(t, int32(1), stub.creates[testSecondary].Load())
}

func TestCompleteRetriesSecondaryOnlyWhenRateLimited(t *testing.T) {
	stub := newPredictionStub(t)
	stub.model(t, testPrimary, pollOutcome{status: "failed", errMsg: "model exploded"})
	stub.model(t, testSecondary,
		pollOutcome{status: "failed", errMsg: "throttled by upstream"},
		pollOutcome{status: "succeeded", output: "third time lucky"},
	)

	var progress bytes.Buffer
	cfg := types.LLMConfig{PrimaryModel: testPrimary, SecondaryModel: testSecondary, MaxRetries: 3}
	c := stub.client(cfg, &progress)
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", out)
	assert.Equal(t, int32(2), stub.creates[testSecondary].Load())
	assert.Contains(t, progress.String(), "rate limited, retry 1/2")
}

func TestCompleteSecondaryHardFailureIsFinal(t *testing.T) {
	stub := newPredictionStub(t)
	stub.model(t, testPrimary, pollOutcome{status: "failed", errMsg: "model exploded"})
	stub.model(t, testSecondary, pollOutcome{status: "failed", errMsg: "invalid input schema"})

	cfg := types.LLMConfig{PrimaryModel: testPrimary, SecondaryModel: testSecondary, MaxRetries: 3}
	c := stub.client(cfg, bytes.NewBuffer(nil))
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input schema")
	assert.Equal(t, int32(1), stub.creates[testSecondary].Load(), "non-rate-limit failures do not retry")
}

func TestCompleteExhaustsRateLimitRetries(t *testing.T) {
	stub := newPredictionStub(t)
	stub.model(t, testPrimary, pollOutcome{status: "failed", errMsg: "throttled"})
	stub.model(t, testSecondary,
		pollOutcome{status: "failed", errMsg: "throttled"},
		pollOutcome{status: "failed", errMsg: "throttled"},
	)

	cfg := types.LLMConfig{PrimaryModel: testPrimary, SecondaryModel: testSecondary, MaxRetries: 2}
	c := stub.client(cfg, bytes.NewBuffer(nil))
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all model attempts failed")
	assert.Equal(t, int32(2), stub.creates[testSecondary].Load())
}

func TestCompleteWithoutToken(t *testing.T) {
	c := New(types.LLMConfig{PrimaryModel: testPrimary}, nil, nil)
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API token")
}

func TestPredictionTimesOut(t *testing.T) {
	stub := newPredictionStub(t)
	stub.model(t, testPrimary, pollOutcome{status: "processing"})

	cfg := types.LLMConfig{PrimaryModel: testPrimary, MaxWait: 20 * time.Millisecond}
	c := stub.client(cfg, bytes.NewBuffer(nil))
	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestFlattenOutput(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "plain string", in: "hello", want: "hello"},
		{name: "string chunks", in: []any{"a", "b", "c"}, want: "abc"},
		{name: "mixed chunks skip non-strings", in: []any{"a", 7.0, "b"}, want: "ab"},
		{name: "object falls back to json", in: map[string]any{"k": "v"}, want: `{"k":"v"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenOutput(tt.in))
		})
	}
}
