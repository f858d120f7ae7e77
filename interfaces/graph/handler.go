package graph

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

type contextKey int

// rawVariablesKey carries the undecoded request variables through the
// execution context. graphql-go drops explicitly-null keys from input
// objects during coercion, so resolvers that treat key presence as a
// signal need the raw map to tell "absent" from "present and null".
const rawVariablesKey contextKey = iota

// graphqlRequest is the standard POST body shape; GET requests carry the
// same fields as query parameters.
type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler serves the single GraphQL endpoint.
type Handler struct {
	schema graphql.Schema
	logger *zap.Logger
}

// NewHandler builds the schema and returns the endpoint handler.
func NewHandler(r *Resolver, logger *zap.Logger) (*Handler, error) {
	schema, err := NewSchema(r)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema, logger: logger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	ctx := context.WithValue(r.Context(), rawVariablesKey, req.Variables)

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})

	if len(result.Errors) > 0 {
		h.logger.Debug("graphql request completed with errors",
			zap.Int("errors", len(result.Errors)))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode graphql response", zap.Error(err))
	}
}

func (h *Handler) parseRequest(w http.ResponseWriter, r *http.Request) (*graphqlRequest, bool) {
	var req graphqlRequest

	switch r.Method {
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"errors":[{"message":"invalid request body"}]}`, http.StatusBadRequest)
			return nil, false
		}
	case http.MethodGet:
		params := r.URL.Query()
		req.Query = params.Get("query")
		req.OperationName = params.Get("operationName")
		if raw := params.Get("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				http.Error(w, `{"errors":[{"message":"invalid variables parameter"}]}`, http.StatusBadRequest)
				return nil, false
			}
		}
	default:
		http.Error(w, `{"errors":[{"message":"method not allowed"}]}`, http.StatusMethodNotAllowed)
		return nil, false
	}

	if req.Query == "" {
		http.Error(w, `{"errors":[{"message":"query is required"}]}`, http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}
