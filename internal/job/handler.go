// Package job implements the serverless job boundary: envelope parsing, input
// validation, and the guarantee that every invocation yields a result mapping.
package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/pipeline"
)

// Validation messages are part of the service contract; callers match on them.
const (
	errNotDictionary      = "Input must be a dictionary"
	errMissingFreightData = "Missing required parameter: freight_data"
	errMissingAccessToken = "Missing required parameter: access_token"
)

// Request is the harness envelope around one job.
type Request struct {
	ID    string          `json:"id"`
	Input json.RawMessage `json:"input"`
}

// ParseRequest decodes the harness envelope. A missing input field is a
// malformed envelope, which is the harness's fault rather than a job outcome.
func ParseRequest(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, eris.Wrap(err, "job: parse request envelope")
	}
	if len(req.Input) == 0 {
		return nil, eris.New("job: request has no input")
	}
	return &req, nil
}

// ErrorOutput is the failure shape of a job result.
type ErrorOutput struct {
	Error string `json:"error"`
}

// Handler runs jobs against a pipeline.
type Handler struct {
	pipe *pipeline.Pipeline
}

// NewHandler creates a job handler.
func NewHandler(p *pipeline.Pipeline) *Handler {
	return &Handler{pipe: p}
}

// Handle validates the job input and processes it. It always returns a
// JSON-marshalable mapping; failures of any kind fold into the error shape.
func (h *Handler) Handle(ctx context.Context, input json.RawMessage) (out any) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("job: handler panic", zap.Any("panic", r))
			out = ErrorOutput{Error: fmt.Sprintf("Processing error: %v", r)}
		}
	}()

	fields, ok := asObject(input)
	if !ok {
		return ErrorOutput{Error: errNotDictionary}
	}

	freight := fields["freight_data"]
	if !truthy(freight) {
		return ErrorOutput{Error: errMissingFreightData}
	}
	token := fields["access_token"]
	if !truthy(token) {
		return ErrorOutput{Error: errMissingAccessToken}
	}

	result, err := h.pipe.Process(ctx, freight, tokenString(token))
	if err != nil {
		zap.L().Error("job: processing failed", zap.Error(err))
		return ErrorOutput{Error: "Processing error: " + err.Error()}
	}
	return result
}

// asObject decodes raw into a JSON object. Arrays, scalars, null, and
// malformed input all fail.
func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	if fields == nil { // JSON null decodes without error
		return nil, false
	}
	return fields, true
}

// tokenString extracts the bearer token. Tokens are normally JSON strings;
// any other truthy value passes through as its raw text.
func tokenString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
