package insights_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/XavierBriggs/Augur/internal/insights"
	"github.com/XavierBriggs/Augur/internal/logging"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spreadRequest(t *testing.T) models.InsightRequest {
	t.Helper()
	req, err := insights.BuildRequest(e2eRecord(), models.MarketSpread, nil)
	require.NoError(t, err)
	return req
}

func TestAnalyze_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer gw-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req models.InsightRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Chiefs @ Bills", req.Matchup)
		assert.Equal(t, "KC -1.5", req.CurrentLine)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bookNeed":"Book needs Bills.","sharpSide":"Sharps on Bills +1.5.","publicSide":"Public on Chiefs."}`))
	}))
	defer server.Close()

	client := insights.NewClient(insights.Config{URL: server.URL, APIKey: "gw-key", Timeout: time.Second}, logging.Nop())

	got, err := client.Analyze(context.Background(), spreadRequest(t))
	require.NoError(t, err)
	assert.False(t, got.Fallback)
	assert.Equal(t, "Book needs Bills.", got.BookNeed)
	assert.Equal(t, "Bills +1.5", got.Play)
}

func TestAnalyze_TextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1. Book Need: Book needs the UNDER.\n\n2. Sharp Side: Sharps on UNDER 52.5.\n3. Public Side: Public loves the over.\n"))
	}))
	defer server.Close()

	client := insights.NewClient(insights.Config{URL: server.URL, Timeout: time.Second}, logging.Nop())

	got, err := client.Analyze(context.Background(), spreadRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "Book needs the UNDER.", got.BookNeed)
	assert.Equal(t, "Sharps on UNDER 52.5.", got.SharpSide)
	assert.Equal(t, "Public loves the over.", got.PublicSide)
	assert.Equal(t, "UNDER 52.5", got.Play)
}

func TestAnalyze_TimeoutFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := insights.NewClient(insights.Config{URL: server.URL, Timeout: 50 * time.Millisecond}, logging.Nop())

	got, err := client.Analyze(context.Background(), spreadRequest(t))
	require.ErrorIs(t, err, models.ErrInsightTimeout)
	assert.True(t, got.Fallback)
	assert.Equal(t, "Book needs Bills at KC -1.5.", got.BookNeed)
}

func TestAnalyze_CallerCancelIsNotTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := insights.NewClient(insights.Config{URL: server.URL, Timeout: 5 * time.Second}, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	got, err := client.Analyze(ctx, spreadRequest(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrInsightTimeout)
	assert.True(t, got.Fallback)
}

func TestAnalyze_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := insights.NewClient(insights.Config{URL: server.URL, Timeout: time.Second}, logging.Nop())

	got, err := client.Analyze(context.Background(), spreadRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway status 503")
	assert.True(t, got.Fallback)
}

func TestAnalyze_Disabled(t *testing.T) {
	client := insights.NewClient(insights.Config{}, logging.Nop())
	assert.False(t, client.IsEnabled())

	got, err := client.Analyze(context.Background(), spreadRequest(t))
	require.NoError(t, err)
	assert.True(t, got.Fallback)
}

func TestAnalyze_CustomExtractor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Book needs KC -1.5.\nSharps on BUF +1.5.\nPublic on KC."))
	}))
	defer server.Close()

	client := insights.NewClient(insights.Config{URL: server.URL, Timeout: time.Second}, logging.Nop()).
		WithExtractor(insights.PlayExtractor{PreferLast: false})

	got, err := client.Analyze(context.Background(), spreadRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "KC -1.5", got.Play)
}

func TestParseResponse_Unparseable(t *testing.T) {
	_, err := insights.ParseResponse([]byte(`{"bookNeed":"only one"}`))
	assert.ErrorIs(t, err, insights.ErrUnparseable)
}
