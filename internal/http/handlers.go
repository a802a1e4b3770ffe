package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"spese/internal/core"
	"spese/internal/ledger"
	"spese/internal/log"
	"spese/internal/snapshot"
)

// retryAfterLoading is the Retry-After hint sent while the ledger loads.
const retryAfterLoading = 2

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.store.IsReady() {
		w.Header().Set("Retry-After", fmt.Sprint(retryAfterLoading))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	l, _, err := s.store.Snapshot()
	if err != nil {
		s.writeStoreError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().JSON(snapshot.Records(l)).Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Unreadable request body", log.FieldError, err.Error())
		BadRequestError("invalid request body").Write(w)
		return
	}

	d, err := ParseDraft(p)
	if err != nil {
		logger.DebugContext(ctx, "Transaction rejected", log.FieldError, err.Error())
		ValidationErrorResponse(err).Write(w)
		return
	}

	change, err := s.store.Add(ctx, d)
	if err != nil {
		s.writeStoreError(w, r, err, log.OpAdd)
		return
	}

	t := change.Transaction
	resp := transactionResponse{Transaction: snapshot.FromTransaction(t)}
	if change.SaveErr != nil {
		resp.Warning = persistenceWarning
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		PersistenceWarning(change.SaveErr).
		JSON(resp).
		Write(w)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError("missing transaction id").Write(w)
		return
	}

	change, err := s.store.Remove(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, log.OpRemove)
		return
	}

	NewJSONResponse().
		Status(http.StatusNoContent).
		PersistenceWarning(change.SaveErr).
		Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ref, err := ParseReference(r.URL.Query(), s.store.Now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	l, rev, err := s.store.Snapshot()
	if err != nil {
		s.writeStoreError(w, r, err, log.OpList)
		return
	}

	// Only explicit references repeat; "now" never does.
	if strings.TrimSpace(r.URL.Query().Get("at")) == "" {
		NewJSONResponse().JSON(newSummaryResponse(core.Summarize(l, ref))).Write(w)
		return
	}
	key := fmt.Sprintf("%d@%d@%s", rev, ref.UnixMilli(), ref.Location())
	sum, ok := s.summaryCache.Get(key)
	if !ok {
		sum = core.Summarize(l, ref)
		s.summaryCache.Set(key, sum)
	}
	NewJSONResponse().JSON(newSummaryResponse(sum)).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(newCategoriesResponse()).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := snapshot.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	l, rev, err := s.store.Snapshot()
	if err != nil {
		s.writeStoreError(w, r, err, "export")
		return
	}

	key := fmt.Sprintf("%s@%d", format, rev)
	data, ok := s.exportCache.Get(key)
	if !ok {
		data, err = snapshot.Export(l, format)
		if err != nil {
			log.NewStructuredLogger(log.FromContext(r.Context())).
				LogError(r.Context(), "Export failed", err, "export", nil)
			InternalServerError("export failed").Write(w)
			return
		}
		s.exportCache.Set(key, data)
	}

	NewJSONResponse().
		Header("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions.%s"`, format)).
		Raw(format.ContentType(), data).
		Write(w)
}

// writeStoreError maps ledger errors to responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, ledger.ErrNotReady):
		NotReadyError(retryAfterLoading).Write(w)
	case errors.As(err, &verr):
		ValidationErrorResponse(err).Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Ledger operation failed", err, op, nil)
		InternalServerError("internal error").Write(w)
	}
}
