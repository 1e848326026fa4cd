package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"daftar/internal/assistant"
	"daftar/internal/core"
	"daftar/internal/log"
)

const banner = "دفتر: المساعد المالي نشط ✅"

func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(banner))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Payload(map[string]string{"status": "ready"}).Write(w)
}

type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Text           string `json:"text"`
}

type messageResponse struct {
	ConversationID string     `json:"conversation_id"`
	Text           string     `json:"text"`
	QuickReplies   [][]string `json:"quick_replies,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// handleMessage runs one message through the assistant. The reply text is
// always returned; the status code reflects the failure path taken, if any.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	req.ConversationID = strings.TrimSpace(req.ConversationID)
	if req.ConversationID == "" {
		UnprocessableEntityError("conversation_id is required").Write(w)
		return
	}
	if req.SenderID == "" {
		req.SenderID = req.ConversationID
	}

	out, err := s.messages.Handle(r.Context(), assistant.Inbound{
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		Text:           req.Text,
	})
	resp := messageResponse{
		ConversationID: out.ConversationID,
		Text:           out.Text,
		QuickReplies:   out.QuickReplies,
	}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = statusFor(err)
	}
	NewJSONResponse().Status(status).Payload(resp).Write(w)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, assistant.ErrClassification), errors.Is(err, assistant.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assistant.ErrPersistence), errors.Is(err, assistant.ErrQuery):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type (
	totalsDTO struct {
		Income  string `json:"income"`
		Expense string `json:"expense"`
		Balance string `json:"balance"`
	}

	categoryDTO struct {
		Name    string `json:"name"`
		Amount  string `json:"amount"`
		Count   int    `json:"count"`
		Percent string `json:"percent"`
	}

	dateDTO struct {
		Date    string `json:"date"`
		Income  string `json:"income"`
		Expense string `json:"expense"`
		Amount  string `json:"amount"`
	}

	summaryResponse struct {
		From                string        `json:"from,omitempty"`
		To                  string        `json:"to,omitempty"`
		Currency            string        `json:"currency"`
		Count               int           `json:"count"`
		Totals              totalsDTO     `json:"totals"`
		AverageDailyExpense string        `json:"average_daily_expense"`
		ByCategory          []categoryDTO `json:"by_category"`
		ByDate              []dateDTO     `json:"by_date"`
	}
)

// handleSummary aggregates a fresh ledger snapshot over ?from=&to=.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rng, err := ParseDateRange(r.URL.Query(), s.location)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	snap, err := s.ledger.Query(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Ledger query failed",
			log.FieldError, err, log.FieldOperation, log.OpQuery)
		BadGatewayError("ledger unavailable").Write(w)
		return
	}

	var filter *core.DateRange
	if !rng.IsZero() {
		filter = &rng
	}
	NewJSONResponse().Payload(s.summaryDTO(core.Aggregate(snap.Records, filter))).Write(w)
}

func (s *Server) summaryDTO(sum core.Summary) summaryResponse {
	resp := summaryResponse{
		Currency: s.currency,
		Count:    sum.Count,
		Totals: totalsDTO{
			Income:  core.FormatAmount(sum.Totals.Income),
			Expense: core.FormatAmount(sum.Totals.Expense),
			Balance: core.FormatAmount(sum.Totals.Balance),
		},
		AverageDailyExpense: core.FormatAmount(sum.AverageDailyExpense()),
		ByCategory:          make([]categoryDTO, 0, len(sum.ByCategory)),
		ByDate:              make([]dateDTO, 0, len(sum.ByDate)),
	}
	if !sum.Range.From.IsZero() {
		resp.From = sum.Range.From.Format(time.DateOnly)
	}
	if !sum.Range.To.IsZero() {
		resp.To = sum.Range.To.Format(time.DateOnly)
	}
	for _, c := range sum.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryDTO{
			Name:    c.Name,
			Amount:  core.FormatAmount(c.Amount),
			Count:   c.Count,
			Percent: c.Percent.String(),
		})
	}
	for _, d := range sum.ByDate {
		resp.ByDate = append(resp.ByDate, dateDTO{
			Date:    d.Date.Format(time.DateOnly),
			Income:  core.FormatAmount(d.Income),
			Expense: core.FormatAmount(d.Expense),
			Amount:  core.FormatAmount(d.Amount),
		})
	}
	return resp
}
