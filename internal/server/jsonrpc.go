package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// JSON-RPC 2.0 error codes used by the agent endpoint.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
)

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id,omitempty"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonrpcError `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleJSONRPC serves the named-method agent endpoint. agent.info is the
// only method: an independent, side-effect-free identity query.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusOK, jsonrpcResponse{
			JSONRPC: "2.0",
			Error:   &jsonrpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	switch req.Method {
	case "agent.info":
		writeJSON(w, http.StatusOK, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]any{
				"name":         s.identity.Name,
				"capabilities": s.identity.Capabilities,
			},
		})
	default:
		writeJSON(w, http.StatusOK, jsonrpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &jsonrpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method},
		})
	}
}
