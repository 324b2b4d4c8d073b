package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tabprep/adapters/jsonrecords"
	"tabprep/adapters/report"
	"tabprep/app"
	"tabprep/domain/datareadiness/preparation"
	"tabprep/domain/datareadiness/profiling"
	"tabprep/internal/config"
	"tabprep/internal/errors"
)

// Server exposes the pipeline over HTTP. It holds no state between requests.
type Server struct {
	router      *chi.Mux
	pipeline    *app.PipelineService
	plan        preparation.Plan
	maxBody     int64
	concurrency int
}

// NewServer builds the router. defaultPlan is used by prepare requests that
// carry no plan of their own.
func NewServer(pipeline *app.PipelineService, cfg *config.Config, defaultPlan preparation.Plan) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		pipeline:    pipeline,
		plan:        defaultPlan,
		maxBody:     cfg.Server.MaxRequestBytes,
		concurrency: cfg.Pipeline.BatchConcurrency,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/validate", s.handle(s.handleValidate))
		r.Post("/report", s.handle(s.handleReport))
		r.Post("/prepare", s.handle(s.handlePrepare))
		r.Post("/prepare/batch", s.handle(s.handlePrepareBatch))
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type validateRequest struct {
	Records  *jsonrecords.Recordset `json:"records"`
	Outliers profiling.OutlierRules `json:"outliers,omitempty"`
}

type prepareRequest struct {
	Records *jsonrecords.Recordset `json:"records"`
	Plan    json.RawMessage        `json:"plan,omitempty"`
}

type batchRequest struct {
	Datasets []namedRecords  `json:"datasets"`
	Plan     json.RawMessage `json:"plan,omitempty"`
}

type namedRecords struct {
	Name    string                 `json:"name"`
	Records *jsonrecords.Recordset `json:"records"`
}

// prepareResponse carries the run result with its recordsets encoded inline
type prepareResponse struct {
	*app.PipelineResult
	Cleaned jsonrecords.Recordset `json:"cleaned"`
	Train   jsonrecords.Recordset `json:"train"`
	Test    jsonrecords.Recordset `json:"test"`
}

type batchResponse struct {
	Name string `json:"name"`
	prepareResponse
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) error {
	var req validateRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if req.Records == nil {
		return errors.InvalidInput("records are required")
	}

	analysis, err := s.pipeline.Analyze(req.Records.Recordset, req.Outliers)
	if err != nil {
		return errors.Wrap(err, "validation failed")
	}
	writeJSON(w, http.StatusOK, analysis)
	return nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) error {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return errors.InvalidInput(err.Error())
	}

	var req validateRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if req.Records == nil {
		return errors.InvalidInput("records are required")
	}

	analysis, err := s.pipeline.Analyze(req.Records.Recordset, req.Outliers)
	if err != nil {
		return errors.Wrap(err, "validation failed")
	}
	body, err := report.Render(analysis.Report, analysis.Profiles, format)
	if err != nil {
		return errors.Wrap(err, "failed to render report")
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	return nil
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) error {
	var req prepareRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if req.Records == nil {
		return errors.InvalidInput("records are required")
	}
	plan, err := s.planFrom(req.Plan)
	if err != nil {
		return err
	}

	result, err := s.pipeline.Run(r.Context(), req.Records.Recordset, plan)
	if err != nil {
		return errors.Wrap(err, "preparation failed")
	}
	writeJSON(w, http.StatusOK, newPrepareResponse(result))
	return nil
}

func (s *Server) handlePrepareBatch(w http.ResponseWriter, r *http.Request) error {
	var req batchRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if len(req.Datasets) == 0 {
		return errors.InvalidInput("datasets are required")
	}
	plan, err := s.planFrom(req.Plan)
	if err != nil {
		return err
	}

	inputs := make([]app.NamedRecordset, len(req.Datasets))
	for i, d := range req.Datasets {
		if d.Records == nil {
			return errors.InvalidInput(fmt.Sprintf("datasets[%d]: records are required", i))
		}
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("dataset_%d", i+1)
		}
		inputs[i] = app.NamedRecordset{Name: name, Recordset: d.Records.Recordset}
	}

	results, err := s.pipeline.RunBatch(r.Context(), inputs, plan, s.concurrency)
	if err != nil {
		return errors.Wrap(err, "batch preparation failed")
	}

	out := make([]batchResponse, len(results))
	for i, res := range results {
		out[i] = batchResponse{Name: res.Name, prepareResponse: newPrepareResponse(res.Result)}
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// planFrom decodes a request plan on top of the default plan. An absent
// plan selects the server's configured plan.
func (s *Server) planFrom(raw json.RawMessage) (preparation.Plan, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return s.plan, nil
	}
	plan, err := config.ParsePlanJSON(raw)
	if err != nil {
		return plan, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return plan, nil
}

func newPrepareResponse(result *app.PipelineResult) prepareResponse {
	return prepareResponse{
		PipelineResult: result,
		Cleaned:        jsonrecords.Recordset{Recordset: result.Cleaned},
		Train:          jsonrecords.Recordset{Recordset: result.Train},
		Test:           jsonrecords.Recordset{Recordset: result.Test},
	}
}

// decode reads a size-limited JSON body into dst. Any failure is the
// client's fault.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if s.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.InvalidInput(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return errors.InvalidInput(fmt.Sprintf("malformed request body: %v", err))
	}
	return nil
}

// handle adapts an error-returning handler and renders its error
func (s *Server) handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: errors.GetCode(err), Message: err.Error()},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}
