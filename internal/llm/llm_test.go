package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daftar/internal/core"
	"daftar/internal/log"
)

type fakeModel struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeModel) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```{\"a\":1}```":         `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, stripFences(in), "input %q", in)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		reply string
		want  Intent
		ok    bool
	}{
		{"write", IntentWrite, true},
		{" READ. ", IntentRead, true},
		{`"chat"`, IntentChat, true},
		{"```json\n{\"intent\":\"read\"}\n```", IntentRead, true},
		{"delete", "", false},
		{"write or read", "", false},
		{`{"intent":"write","confidence":0.9}`, "", false},
	}
	for _, tc := range cases {
		m := &fakeModel{reply: tc.reply}
		got, err := New(m, core.DefaultTaxonomy()).Classify(context.Background(), "hi")
		if tc.ok {
			require.NoError(t, err, tc.reply)
			assert.Equal(t, tc.want, got)
		} else {
			require.Error(t, err, tc.reply)
			assert.True(t, IsDecodeError(err), "reply %q should be a decode error", tc.reply)
		}
	}
}

func TestClassifyPropagatesProviderError(t *testing.T) {
	boom := errors.New("timeout")
	_, err := New(&fakeModel{err: boom}, core.DefaultTaxonomy()).Classify(context.Background(), "hi")
	require.ErrorIs(t, err, boom)
	assert.False(t, IsDecodeError(err))

	_, err = New(&fakeModel{reply: "  "}, core.DefaultTaxonomy()).Classify(context.Background(), "hi")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestExtractDecodesStrictly(t *testing.T) {
	m := &fakeModel{reply: "```json\n{\"item\":\"قهوة\",\"amount\":15,\"category\":\"المطاعم والكافيهات\",\"kind\":\"expense\",\"currency\":null}\n```"}
	c := New(m, core.DefaultTaxonomy())
	e, err := c.Extract(context.Background(), "شريت قهوة 15")
	require.NoError(t, err)

	assert.Equal(t, "قهوة", e.Item)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "المطاعم والكافيهات", e.Category)
	assert.Equal(t, core.Expense, e.Kind)
	assert.Empty(t, e.Currency)
	assert.Equal(t, "شريت قهوة 15", m.user)
	assert.Contains(t, m.system, "التسوق")
	assert.Contains(t, m.system, core.NeedsClarification)
}

func TestExtractAcceptsStringAmountAndCurrency(t *testing.T) {
	m := &fakeModel{reply: `{"item":"Noon","amount":"50.5","category":"NeedsClarification","kind":"Expense","currency":"sar"}`}
	e, err := New(m, core.DefaultTaxonomy()).Extract(context.Background(), "Noon 50.5")
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("50.5")))
	assert.Equal(t, core.NeedsClarification, e.Category)
	assert.Equal(t, "SAR", e.Currency)
}

func TestExtractRejectsMalformed(t *testing.T) {
	replies := []string{
		`not json`,
		`{"item":"x","amount":-5,"category":"البقالة","kind":"expense"}`,
		`{"item":"x","amount":"abc","category":"البقالة","kind":"expense"}`,
		`{"item":"x","category":"البقالة","kind":"expense"}`,
		`{"item":"","amount":5,"category":"البقالة","kind":"expense"}`,
		`{"item":"x","amount":5,"kind":"expense"}`,
		`{"item":"x","amount":5,"category":"البقالة"}`,
		`{"item":"x","amount":5,"category":"البقالة","kind":"transfer"}`,
		`{"item":"x","amount":5,"category":"البقالة","kind":"expense","confidence":1}`,
		`{"item":"x","amount":5,"category":"البقالة","kind":"expense"} trailing`,
		`[{"item":"x","amount":5,"category":"البقالة","kind":"expense"}]`,
	}
	for _, r := range replies {
		_, err := New(&fakeModel{reply: r}, core.DefaultTaxonomy()).Extract(context.Background(), "x")
		require.Error(t, err, r)
		assert.True(t, IsDecodeError(err), "reply %q", r)
	}
}

func TestSummarizeAndChatPassThrough(t *testing.T) {
	m := &fakeModel{reply: " صرفت 15 ريال "}
	c := New(m, core.DefaultTaxonomy())

	out, err := c.Summarize(context.Background(), "كم صرفت؟", "total_expense: 15 SAR")
	require.NoError(t, err)
	assert.Equal(t, "صرفت 15 ريال", out)
	assert.True(t, strings.Contains(m.user, "total_expense: 15 SAR"))

	_, err = c.Chat(context.Background(), "هلا")
	require.NoError(t, err)
	assert.Equal(t, chatPrompt, m.system)
}

func TestDecodeFailuresLogThroughContextLogger(t *testing.T) {
	var buf strings.Builder
	logger := log.New(log.Config{Output: &buf, Format: log.FormatText})
	ctx := log.WithContext(context.Background(), logger.With(log.FieldConversationID, "c42"))
	c := New(&fakeModel{reply: "maybe"}, core.DefaultTaxonomy())

	_, err := c.Classify(ctx, "hi")
	require.Error(t, err)
	_, err = c.Extract(ctx, "hi")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "Unusable classification response")
	assert.Contains(t, out, "Unusable extraction response")
	assert.Equal(t, 2, strings.Count(out, "conversation_id=c42"))
}
