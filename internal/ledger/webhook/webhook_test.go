package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daftar/internal/core"
	"daftar/internal/ledger"
	"daftar/internal/log"
)

func coffee() core.Transaction {
	return core.Transaction{
		Item:     "قهوة",
		Amount:   decimal.NewFromInt(15),
		Currency: "SAR",
		Category: "المطاعم والكافيهات",
		Kind:     core.Expense,
		RawText:  "شريت قهوة 15",
	}
}

func TestAppendPostsJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ok","row":42}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ref, err := c.Append(context.Background(), coffee())
	require.NoError(t, err)

	assert.Equal(t, "row:42", ref)
	assert.Equal(t, "قهوة", got["item"])
	assert.Equal(t, "15", got["amount"])
	assert.Equal(t, "expense", got["type"])
	assert.Equal(t, "شريت قهوة 15", got["raw_text"])
	assert.NotEmpty(t, got["id"])
}

func TestAppendAcceptsPlainTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Success"))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	tx := coffee()
	tx.ID = "abc"
	ref, err := c.Append(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "webhook:abc", ref)
}

func TestAppendSurfacesFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		},
		"body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","error":"sheet locked"}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			c, _ := New(srv.URL)
			_, err := c.Append(context.Background(), coffee())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ledger.ErrStore))
		})
	}
}

func TestAppendRejectsUnresolvedBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c, _ := New(srv.URL)
	tx := coffee()
	tx.Category = core.NeedsClarification
	_, err := c.Append(context.Background(), tx)
	require.Error(t, err)
	assert.False(t, called)
}

func TestQueryParsesRecordsAndTotals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{
			"records": [
				{"date":"1/3/2025 10:00:00","item":"راتب","amount":5000,"category":"الراتب","type":"income"},
				{"date":"2/3/2025","item":"قهوة","amount":"15","category":"المطاعم والكافيهات"},
				{"date":"garbage","item":"x","amount":1,"category":"y"},
				{"date":"3/3/2025","item":"bad","amount":"n/a","category":"y"}
			],
			"totals": {"income":5000,"expense":"15","balance":4985}
		}`))
	}))
	defer srv.Close()

	loc := time.FixedZone("AST", 3*3600)
	c, _ := New(srv.URL, WithLocation(loc))
	snap, err := c.Query(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Records, 2)
	assert.Equal(t, core.Income, snap.Records[0].Kind)
	assert.Equal(t, core.Expense, snap.Records[1].Kind)
	assert.Equal(t, 2, snap.Records[1].Date.Day())
	assert.True(t, snap.Totals.Balance.Equal(decimal.NewFromInt(4985)))
	assert.True(t, snap.Totals.Equal(core.Aggregate(snap.Records, nil).Totals))
}

func TestQueryTotalsFollowParsedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The sheet counts the unparseable 40 row in its totals.
		_, _ = w.Write([]byte(`{
			"records": [
				{"date":"2/3/2025","item":"قهوة","amount":15,"category":"المطاعم والكافيهات"},
				{"date":"not a date","item":"غداء","amount":40,"category":"المطاعم والكافيهات"}
			],
			"totals": {"income":0,"expense":55,"balance":-55}
		}`))
	}))
	defer srv.Close()

	var buf strings.Builder
	logger := log.New(log.Config{Output: &buf, Format: log.FormatText})
	ctx := log.WithContext(context.Background(), logger.With(log.FieldConversationID, "c1"))

	c, _ := New(srv.URL)
	snap, err := c.Query(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Records, 1)
	assert.True(t, snap.Totals.Expense.Equal(decimal.NewFromInt(15)))
	assert.True(t, snap.Totals.Balance.Equal(decimal.NewFromInt(-15)))
	assert.True(t, snap.Totals.Equal(core.Aggregate(snap.Records, nil).Totals))

	out := buf.String()
	assert.Contains(t, out, "Ledger totals disagree with its records")
	assert.Contains(t, out, "reported_expense=55")
	assert.Contains(t, out, "computed_expense=15")
	assert.Contains(t, out, "conversation_id=c1")
}

func TestQueryComputesMissingTotals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records":[{"date":"2025-03-02","item":"غداء","amount":"-","category":"x"},{"date":"2025-03-02","item":"غداء","amount":40,"category":"x"}]}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	snap, err := c.Query(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.True(t, snap.Totals.Expense.Equal(decimal.NewFromInt(40)))
	assert.True(t, snap.Totals.Balance.Equal(decimal.NewFromInt(-40)))
}

func TestQueryFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()
	c, _ := New(srv.URL)
	_, err := c.Query(context.Background())
	require.Error(t, err)

	_, err = New("  ")
	require.Error(t, err)
}
