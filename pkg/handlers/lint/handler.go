package lint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/piranna/projectlint/pkg/adapters"
	"github.com/piranna/projectlint/pkg/models/api"
	"github.com/piranna/projectlint/pkg/models/domain"
	"github.com/piranna/projectlint/pkg/models/store"
	"github.com/piranna/projectlint/pkg/services/engine"
	"github.com/piranna/projectlint/pkg/services/rules"
	"github.com/piranna/projectlint/pkg/store/duckdb/history"
)

const defaultHistoryLimit = 100

// Runner is the engine surface the handler needs.
type Runner interface {
	Run(ctx context.Context, rules map[string]domain.Rule, configs map[string]any, opts engine.Options) (engine.Results, error)
}

type Handler struct {
	runner   Runner
	registry rules.Registry
	history  history.Store
}

func NewHandler(runner Runner, registry rules.Registry, history history.Store) *Handler {
	return &Handler{
		runner:   runner,
		registry: registry,
		history:  history,
	}
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if err := json.NewEncoder(w).Encode(h.registry.List()); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode rule list")
	}
}

func (h *Handler) Lint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.LintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	results, err := h.runner.Run(ctx, h.registry.All(), req.Configs, engine.Options{
		ErrorLevel:  engine.ErrorLevel(req.ErrorLevel),
		ProjectRoot: req.Roots,
		Fix:         req.Fix,
	})
	if err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			http.Error(w, cfgErr.Error(), http.StatusBadRequest)
			return
		}
		logger.Error().Err(err).Msg("lint run failed")
		http.Error(w, "lint run failed", http.StatusInternalServerError)
		return
	}

	runID := uuid.NewString()
	if h.history != nil {
		rows := adapters.MapResultsDomainToStore(runID, results, time.Now().UTC())
		if err := h.history.Add(ctx, rows); err != nil {
			logger.Error().
				Err(err).
				Str("run_id", runID).
				Msg("failed to persist run results")
		}
	}

	if err := json.NewEncoder(w).Encode(adapters.MapResultsDomainToApi(runID, results)); err != nil {
		logger.Error().
			Err(err).
			Str("run_id", runID).
			Msg("failed to encode lint results")
	}
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	root := r.URL.Query().Get("root")
	runID := r.URL.Query().Get("run_id")
	if root == "" && runID == "" {
		http.Error(w, "missing root or run_id query parameter", http.StatusBadRequest)
		return
	}

	var (
		rows []store.RunResult
		err  error
	)
	if runID != "" {
		rows, err = h.history.ListByRun(ctx, runID)
	} else {
		rows, err = h.history.ListByRoot(ctx, root, defaultHistoryLimit)
	}
	if err != nil {
		logger.Error().
			Err(err).
			Str("root", root).
			Str("run_id", runID).
			Msg("failed to list run results")
		http.Error(w, "failed to list run results", http.StatusInternalServerError)
		return
	}

	response := make([]api.RunRecord, 0, len(rows))
	for _, row := range rows {
		response = append(response, adapters.MapRunResultStoreToApi(row))
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Str("root", root).
			Msg("failed to encode run records")
	}
}
