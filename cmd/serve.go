package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/condition"
	"github.com/benefitsnav/screener-cli/internal/eligibility"
	"github.com/benefitsnav/screener-cli/internal/model"
	"github.com/benefitsnav/screener-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screening API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := loadEngine()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		api := &apiServer{engine: eng, store: st}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type apiServer struct {
	engine *engine
	store  store.Store
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/screenings", s.handleCreateScreening)
		r.Get("/screenings", s.handleListScreenings)
		r.Get("/screenings/{id}", s.handleGetScreening)
		r.Get("/programs", s.handleListPrograms)
		r.Get("/questions", s.handleListQuestions)
		r.Get("/thresholds", s.handleThreshold)
		r.Post("/conditions/evaluate", s.handleEvaluateCondition)
	})

	return r
}

type screeningRequest struct {
	Profile model.UserProfile `json:"profile"`
	At      string            `json:"at,omitempty"`
}

func (s *apiServer) handleCreateScreening(w http.ResponseWriter, r *http.Request) {
	var req screeningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	at := time.Now()
	if req.At != "" {
		parsed, err := time.Parse("2006-01-02", req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be YYYY-MM-DD")
			return
		}
		at = parsed
	}

	if err := req.Profile.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates := s.engine.catalog.Candidates(req.Profile.Jurisdiction, at)
	outcome, err := s.engine.screener.EvaluateProfile(&req.Profile, candidates, at)
	if err != nil {
		zap.L().Error("screening failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "screening failed")
		return
	}

	rec := &model.ScreeningRecord{
		Profile:     req.Profile,
		Matches:     outcome.Matches,
		Explanation: s.engine.generator.Explain(outcome.Matches, &req.Profile, outcome.ExcludedReasons),
	}
	if err := s.store.SaveScreening(r.Context(), rec); err != nil {
		zap.L().Error("save screening failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *apiServer) handleGetScreening(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetScreening(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "screening not found")
			return
		}
		zap.L().Error("get screening failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *apiServer) handleListScreenings(w http.ResponseWriter, r *http.Request) {
	filter := store.ScreeningFilter{
		Jurisdiction: r.URL.Query().Get("jurisdiction"),
		Limit:        queryInt(r, "limit", 50),
		Offset:       queryInt(r, "offset", 0),
	}
	records, err := s.store.ListScreenings(r.Context(), filter)
	if err != nil {
		zap.L().Error("list screenings failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *apiServer) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs := s.engine.catalog.Programs(r.URL.Query().Get("jurisdiction"))
	writeJSON(w, http.StatusOK, programs)
}

func (s *apiServer) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.store.ListQuestions(r.Context())
	if err != nil {
		zap.L().Error("list questions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// handleThreshold answers "what income limit applies" for a given year,
// household size, and FPL percentage.
func (s *apiServer) handleThreshold(w http.ResponseWriter, r *http.Request) {
	if s.engine.fpl == nil {
		writeError(w, http.StatusServiceUnavailable, "poverty table not loaded")
		return
	}

	year := queryInt(r, "year", cfg.Screening.FPLYear)
	size := queryInt(r, "household_size", 1)
	percentage := queryInt(r, "percentage", 100)
	jurisdiction := r.URL.Query().Get("jurisdiction")

	baseline, err := s.engine.fpl.Baseline(year, size, jurisdiction)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	calc := eligibility.NewThresholdCalculator(cfg.Screening.PerPersonIncrementCents)
	annual, err := calc.Annual(baseline, percentage, size)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	monthly, err := calc.Monthly(baseline, percentage, size)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":                year,
		"household_size":      size,
		"percentage":          percentage,
		"jurisdiction":        jurisdiction,
		"annual_limit_cents":  annual,
		"monthly_limit_cents": monthly,
		"baseline_cents":      baseline,
	})
}

type conditionRequest struct {
	Expression string            `json:"expression"`
	Answers    map[string]string `json:"answers,omitempty"`
}

func (s *apiServer) handleEvaluateCondition(w http.ResponseWriter, r *http.Request) {
	var req conditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Expression == "" {
		writeError(w, http.StatusBadRequest, "expression is required")
		return
	}

	rule, err := condition.ParseRule(req.Expression)
	if err != nil {
		var perr *condition.ParseError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  perr.Message,
				"offset": perr.Offset,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": rule.Evaluate(req.Answers),
		"refs":   rule.Refs(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
