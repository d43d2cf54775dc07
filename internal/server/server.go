// Package server exposes the financing forecast over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/iwvelando/financing-forecast/internal/cache"
	"github.com/iwvelando/financing-forecast/internal/config"
	"github.com/iwvelando/financing-forecast/internal/forecast"
	"github.com/iwvelando/financing-forecast/internal/repository"
	"github.com/iwvelando/financing-forecast/pkg/constants"
	"github.com/iwvelando/financing-forecast/pkg/output"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Options wires the handler's collaborators. Zero values fall back to
// in-memory implementations.
type Options struct {
	MaxUploadSize  int64
	Version        string
	AllowedOrigins []string
	Repository     repository.Repository
	CacheStore     cache.Store
	CacheTTL       time.Duration
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	repo          repository.Repository
	runner        *forecast.Runner
}

// NewHandler constructs the HTTP handler that serves the forecast API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	repo := opts.Repository
	if repo == nil {
		repo = repository.NewMemory()
	}

	memo := cache.NewMemoizer(logger, opts.CacheStore, opts.CacheTTL)

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		repo:          repo,
		runner:        forecast.NewRunner(logger, memo),
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Post("/simulate", h.handleSimulate)
		r.Post("/compare", h.handleCompare)

		// Whole configuration, uploaded as YAML or sent by the editor.
		r.Post("/forecast", h.handleForecast)
		r.Post("/editor/forecast", h.handleForecastEditor)
		r.Post("/editor/export", h.handleConfigExport)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.handleListScenarios)
			r.Post("/", h.handleCreateScenario)
			r.Get("/{id}", h.handleGetScenario)
			r.Put("/{id}", h.handleUpdateScenario)
			r.Delete("/{id}", h.handleDeleteScenario)
			r.Get("/{id}/timeline", h.handleScenarioTimeline)
		})
	})

	return r
}

type forecastResponse struct {
	Scenarios  []scenarioResult       `json:"scenarios"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

type simulateResponse struct {
	scenarioResult
	Duration string `json:"duration"`
}

type compareResponse struct {
	Scenarios []scenarioResult `json:"scenarios"`
	Duration  string           `json:"duration"`
}

type saveRequest struct {
	Name     string                 `json:"name"`
	Scenario map[string]interface{} `json:"scenario"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	start := time.Now()

	payload, ok := h.decodeObject(w, r, op)
	if !ok {
		return
	}
	scenario, err := config.DecodeScenario(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result, err := h.runner.RunScenario(r.Context(), scenario)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.logger.Debug("scenario simulated",
		zap.String("op", op),
		zap.Int("months", len(result.Rows)),
	)
	h.writeJSON(w, http.StatusOK, simulateResponse{
		scenarioResult: newScenarioResult(result, true),
		Duration:       time.Since(start).String(),
	})
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	start := time.Now()

	var payload struct {
		Scenarios []map[string]interface{} `json:"scenarios"`
	}
	if !h.decodeJSON(w, r, &payload, "scenarios", op) {
		return
	}
	if len(payload.Scenarios) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "at least one scenario is required", op)
		return
	}

	scenarios := make([]config.Scenario, len(payload.Scenarios))
	for i, raw := range payload.Scenarios {
		s, err := config.DecodeScenario(raw)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("scenario %d: %v", i+1, err), op)
			return
		}
		if s.Name == "" {
			s.Name = "Scenario " + strconv.Itoa(i+1)
		}
		scenarios[i] = s
	}

	results := make([]scenarioResult, len(scenarios))
	g, ctx := errgroup.WithContext(r.Context())
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			f, err := h.runner.RunScenario(ctx, s)
			if err != nil {
				return err
			}
			results[i] = newScenarioResult(f, false)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, compareResponse{
		Scenarios: results,
		Duration:  time.Since(start).String(),
	})
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	start := time.Now()

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.runForecast(r.Context(), w, cfg, configMap, start, op)
}

func (h *handler) handleForecastEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecastEditor"
	start := time.Now()

	payload, ok := h.decodeObject(w, r, op)
	if !ok {
		return
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	cfg, err := config.DecodeConfiguration(configPayload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.runForecast(r.Context(), w, cfg, configPayload, start, op)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"

	payload, ok := h.decodeObject(w, r, op)
	if !ok {
		return
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) runForecast(ctx context.Context, w http.ResponseWriter, cfg *config.Configuration, configMap map[string]interface{}, start time.Time, op string) {
	if err := cfg.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	results, err := h.runner.Run(ctx, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute forecast: %v", err), op)
		return
	}

	csvData, err := output.CsvString(results)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	configYAML, err := marshalOrderedConfigYAML(configMap)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	scenarios := make([]scenarioResult, 0, len(results))
	for _, f := range results {
		scenarios = append(scenarios, newScenarioResult(f, true))
	}

	elapsed := time.Since(start)
	response := forecastResponse{
		Scenarios:  scenarios,
		CSV:        csvData,
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configYAML),
	}

	h.logger.Info("forecast computed",
		zap.String("op", op),
		zap.Int("scenarios", len(response.Scenarios)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListScenarios"

	records, err := h.repo.List(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	out := make([]recordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, newRecordDTO(rec))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateScenario"

	rec, ok := h.decodeRecord(w, r, op)
	if !ok {
		return
	}
	saved, err := h.repo.Save(r.Context(), rec)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.logger.Info("scenario saved",
		zap.String("op", op),
		zap.String("id", saved.ID.String()),
	)
	h.writeJSON(w, http.StatusCreated, newRecordDTO(saved))
}

func (h *handler) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetScenario"

	rec, ok := h.loadRecord(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newRecordDTO(rec))
}

func (h *handler) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateScenario"

	existing, ok := h.loadRecord(w, r, op)
	if !ok {
		return
	}
	rec, ok := h.decodeRecord(w, r, op)
	if !ok {
		return
	}
	rec.ID = existing.ID

	saved, err := h.repo.Save(r.Context(), rec)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, newRecordDTO(saved))
}

func (h *handler) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteScenario"

	id, ok := h.parseID(w, r, op)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.respondRepositoryError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleScenarioTimeline(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenarioTimeline"
	start := time.Now()

	rec, ok := h.loadRecord(w, r, op)
	if !ok {
		return
	}

	result, err := h.runner.RunScenario(r.Context(), rec.Scenario)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, simulateResponse{
		scenarioResult: newScenarioResult(result, true),
		Duration:       time.Since(start).String(),
	})
}

// decodeJSON reads a JSON body of at most maxUploadSize bytes into v and
// writes the error response itself when that fails.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, what, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode %s: %v", what, err), op)
		return false
	}
	return true
}

func (h *handler) decodeObject(w http.ResponseWriter, r *http.Request, op string) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if !h.decodeJSON(w, r, &payload, "request", op) {
		return nil, false
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return payload, true
}

func (h *handler) decodeRecord(w http.ResponseWriter, r *http.Request, op string) (repository.Record, bool) {
	var req saveRequest
	if !h.decodeJSON(w, r, &req, "request", op) {
		return repository.Record{}, false
	}
	if req.Scenario == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing scenario", op)
		return repository.Record{}, false
	}

	scenario, err := config.DecodeScenario(req.Scenario)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return repository.Record{}, false
	}
	if _, err := scenario.ToScenarioConfig(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return repository.Record{}, false
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(scenario.Name)
	}
	if name == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "scenario name is required", op)
		return repository.Record{}, false
	}
	return repository.Record{Name: name, Scenario: scenario}, true
}

func (h *handler) parseID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid scenario id %q", raw), op)
		return uuid.Nil, false
	}
	return id, true
}

func (h *handler) loadRecord(w http.ResponseWriter, r *http.Request, op string) (repository.Record, bool) {
	id, ok := h.parseID(w, r, op)
	if !ok {
		return repository.Record{}, false
	}
	rec, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.respondRepositoryError(w, err, op)
		return repository.Record{}, false
	}
	return rec, true
}

func (h *handler) respondRepositoryError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, repository.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
