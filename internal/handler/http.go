package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/amaumene/schematizer/internal/convert"
	"github.com/amaumene/schematizer/internal/domain"
	"github.com/amaumene/schematizer/internal/service"
	log "github.com/sirupsen/logrus"
)

const contentTypeJSON = "application/json"

type HTTPHandler struct {
	registry *service.RegistryService
}

func NewHTTPHandler(registry *service.RegistryService) *HTTPHandler {
	return &HTTPHandler{registry: registry}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/namespaces", h.handleListNamespaces)
	mux.HandleFunc("GET /v1/namespaces/{namespace}/sources", h.handleListSourcesByNamespace)
	mux.HandleFunc("GET /v1/sources", h.handleListSources)
	mux.HandleFunc("GET /v1/sources/{source_id}", h.handleGetSource)
	mux.HandleFunc("GET /v1/sources/{source_id}/topics", h.handleListTopicsBySource)
	mux.HandleFunc("GET /v1/sources/{source_id}/topics/latest", h.handleLatestTopicBySource)
	mux.HandleFunc("GET /v1/topics/{topic_name}", h.handleGetTopic)
	mux.HandleFunc("GET /v1/topics/{topic_name}/schemas", h.handleListSchemasByTopic)
	mux.HandleFunc("GET /v1/topics/{topic_name}/schemas/latest", h.handleLatestSchemaByTopic)
	mux.HandleFunc("GET /v1/schemas/{schema_id}", h.handleGetSchema)
	mux.HandleFunc("POST /v1/schemas/avro", h.handleRegisterAvro)
	mux.HandleFunc("POST /v1/schemas/redshift", h.handleRegisterRedshift)
	mux.HandleFunc("POST /v1/compatibility/schemas/avro", h.handleAvroCompatibility)
	mux.HandleFunc("POST /v1/compatibility/schemas/redshift", h.handleRedshiftCompatibility)
	mux.HandleFunc("PUT /v1/schemas/{schema_id}/status", h.handleUpdateSchemaStatus)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /status", h.handleStatus)
}

func (h *HTTPHandler) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := h.registry.ListNamespaces(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if namespaces == nil {
		namespaces = []string{}
	}
	h.writeJSON(w, http.StatusOK, namespaces)
}

func (h *HTTPHandler) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.registry.ListSources(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if sources == nil {
		sources = []domain.Source{}
	}
	h.writeJSON(w, http.StatusOK, sources)
}

func (h *HTTPHandler) handleListSourcesByNamespace(w http.ResponseWriter, r *http.Request) {
	sources, err := h.registry.ListSourcesByNamespace(r.Context(), r.PathValue("namespace"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if sources == nil {
		sources = []domain.Source{}
	}
	h.writeJSON(w, http.StatusOK, sources)
}

func (h *HTTPHandler) handleGetSource(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "source_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	source, err := h.registry.GetSource(r.Context(), sourceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, source)
}

func (h *HTTPHandler) handleListTopicsBySource(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "source_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	topics, err := h.registry.ListTopicsBySource(r.Context(), sourceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if topics == nil {
		topics = []domain.Topic{}
	}
	h.writeJSON(w, http.StatusOK, topics)
}

func (h *HTTPHandler) handleLatestTopicBySource(w http.ResponseWriter, r *http.Request) {
	sourceID, err := parseID(r, "source_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	topic, err := h.registry.LatestTopicBySource(r.Context(), sourceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, topic)
}

func (h *HTTPHandler) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.registry.GetTopicByName(r.Context(), r.PathValue("topic_name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, topic)
}

func (h *HTTPHandler) handleListSchemasByTopic(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"
	schemas, err := h.registry.ListSchemasByTopicName(r.Context(), r.PathValue("topic_name"), includeDisabled)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if schemas == nil {
		schemas = []domain.AvroSchema{}
	}
	h.writeJSON(w, http.StatusOK, schemas)
}

func (h *HTTPHandler) handleLatestSchemaByTopic(w http.ResponseWriter, r *http.Request) {
	schema, err := h.registry.LatestSchemaByTopicName(r.Context(), r.PathValue("topic_name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, schema)
}

type schemaResponse struct {
	*domain.AvroSchema
	Elements []domain.SchemaElement `json:"elements"`
}

func (h *HTTPHandler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schemaID, err := parseID(r, "schema_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	schema, elements, err := h.registry.GetSchema(r.Context(), schemaID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if elements == nil {
		elements = []domain.SchemaElement{}
	}
	h.writeJSON(w, http.StatusOK, schemaResponse{AvroSchema: schema, Elements: elements})
}

type registerAvroRequest struct {
	Schema           string  `json:"schema"`
	Namespace        string  `json:"namespace"`
	Source           string  `json:"source"`
	SourceOwnerEmail string  `json:"source_owner_email"`
	BaseSchemaID     *uint64 `json:"base_schema_id"`
}

func (h *HTTPHandler) handleRegisterAvro(w http.ResponseWriter, r *http.Request) {
	var req registerAvroRequest
	if err := h.parseBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	schema, err := h.registry.RegisterAvroSchema(r.Context(), service.RegisterAvroRequest{
		SchemaJSON:       req.Schema,
		Namespace:        req.Namespace,
		Source:           req.Source,
		SourceOwnerEmail: req.SourceOwnerEmail,
		BaseSchemaID:     req.BaseSchemaID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, schema)
}

type registerRedshiftRequest struct {
	Statements       []string `json:"statements"`
	Namespace        string   `json:"namespace"`
	Source           string   `json:"source"`
	SourceOwnerEmail string   `json:"source_owner_email"`
}

func (h *HTTPHandler) handleRegisterRedshift(w http.ResponseWriter, r *http.Request) {
	var req registerRedshiftRequest
	if err := h.parseBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	schema, err := h.registry.RegisterRedshiftSchema(r.Context(), service.RegisterRedshiftRequest{
		Statements:       req.Statements,
		Namespace:        req.Namespace,
		Source:           req.Source,
		SourceOwnerEmail: req.SourceOwnerEmail,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, schema)
}

type compatibilityRequest struct {
	Schema     string   `json:"schema"`
	Statements []string `json:"statements"`
	Namespace  string   `json:"namespace"`
	Source     string   `json:"source"`
}

type compatibilityResponse struct {
	IsCompatible bool `json:"is_compatible"`
}

func (h *HTTPHandler) handleAvroCompatibility(w http.ResponseWriter, r *http.Request) {
	var req compatibilityRequest
	if err := h.parseBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	compatible, err := h.registry.CheckAvroCompatibility(r.Context(), req.Schema, req.Namespace, req.Source)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, compatibilityResponse{IsCompatible: compatible})
}

func (h *HTTPHandler) handleRedshiftCompatibility(w http.ResponseWriter, r *http.Request) {
	var req compatibilityRequest
	if err := h.parseBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	compatible, err := h.registry.CheckRedshiftCompatibility(r.Context(), req.Statements, req.Namespace, req.Source)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, compatibilityResponse{IsCompatible: compatible})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *HTTPHandler) handleUpdateSchemaStatus(w http.ResponseWriter, r *http.Request) {
	schemaID, err := parseID(r, "schema_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req statusRequest
	if err := h.parseBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	status, err := domain.ParseSchemaStatus(req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	switch status {
	case domain.StatusDisabled:
		err = h.registry.DisableSchema(r.Context(), schemaID)
	case domain.StatusReadOnly:
		err = h.registry.MarkSchemaReadonly(r.Context(), schemaID)
	default:
		err = fmt.Errorf("schemas cannot transition back to %q: %w", status, domain.ErrInvalidInput)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusRequest{Status: string(status)})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type statusResponse struct {
	Status string `json:"status"`
	service.RegistryCounts
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.registry.Counts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "ok", RegistryCounts: *counts})
}

func (h *HTTPHandler) parseBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading body: %w", domain.ErrInvalidInput)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("unmarshalling json: %w", domain.ErrInvalidInput)
	}
	return nil
}

func parseID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, domain.ErrInvalidInput)
	}
	return id, nil
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithField("error", err).Error("failed to encode json response")
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithField("error", err).Error("request failed")
		h.writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingDoc):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidSchema):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict
	}

	var unsupported *convert.UnsupportedTypeError
	if errors.As(err, &unsupported) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
