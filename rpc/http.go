package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"dropsland/core"
	"dropsland/native/fantoken"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "DROPSLAND_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Engine error kinds carry distinct codes so clients can branch on them
// without parsing message text.
const (
	codeUnauthorized        = -32001
	codeNotFound            = -32002
	codeAlreadyExists       = -32003
	codeInsufficientFunds   = -32004
	codeInsufficientBalance = -32005
	codeRewardInactive      = -32006
	codeTransferNotAllowed  = -32007
)

type Server struct {
	node      *core.Node
	authToken string
}

func NewServer(node *core.Node) *Server {
	token := strings.TrimSpace(os.Getenv(authTokenEnv))
	return &Server{
		node:      node,
		authToken: token,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	fmt.Printf("Starting JSON-RPC server on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps the typed engine errors onto JSON-RPC error codes so
// clients can distinguish authorization failures from lifecycle misuse.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, fantoken.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, fantoken.ErrMintNotFound),
		errors.Is(err, fantoken.ErrAccountNotFound),
		errors.Is(err, fantoken.ErrRewardNotFound),
		errors.Is(err, fantoken.ErrNotCustomer):
		writeError(w, http.StatusNotFound, id, codeNotFound, err.Error(), nil)
	case errors.Is(err, fantoken.ErrMintExists), errors.Is(err, fantoken.ErrRewardExists):
		writeError(w, http.StatusConflict, id, codeAlreadyExists, err.Error(), nil)
	case errors.Is(err, fantoken.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, id, codeInsufficientFunds, err.Error(), nil)
	case errors.Is(err, fantoken.ErrInsufficientTokenBalance):
		writeError(w, http.StatusBadRequest, id, codeInsufficientBalance, err.Error(), nil)
	case errors.Is(err, fantoken.ErrRewardInactive), errors.Is(err, fantoken.ErrRewardAlreadyRemoved):
		writeError(w, http.StatusBadRequest, id, codeRewardInactive, err.Error(), nil)
	case errors.Is(err, fantoken.ErrTransferNotAllowed):
		writeError(w, http.StatusBadRequest, id, codeTransferNotAllowed, err.Error(), nil)
	case errors.Is(err, fantoken.ErrNilState), errors.Is(err, fantoken.ErrRewardAuthorityNotSet):
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	default:
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	}
}

// requireAuth enforces the bearer token on mutating methods. When no token is
// configured the node is open; that matches a local development setup.
func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

// handle is the main request handler that routes to method handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", err.Error())
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}

	switch req.Method {
	case "token_createMint":
		s.handleCreateMint(w, r, &req)
	case "token_mint":
		s.handleMintTokens(w, r, &req)
	case "token_freeze":
		s.handleFreezeTokens(w, r, &req)
	case "token_verifyNonTransferable":
		s.handleVerifyNonTransferable(w, r, &req)
	case "token_transfer":
		s.handleTransferTokens(w, r, &req)
	case "token_getCustomerCount":
		s.handleCustomerCount(w, r, &req)
	case "token_getBalance":
		s.handleTokenBalance(w, r, &req)
	case "token_getSupply":
		s.handleTokenSupply(w, r, &req)
	case "token_getMint":
		s.handleMintInfo(w, r, &req)
	case "reward_add":
		s.handleAddReward(w, r, &req)
	case "reward_remove":
		s.handleRemoveReward(w, r, &req)
	case "reward_claim":
		s.handleClaimReward(w, r, &req)
	case "reward_burn":
		s.handleBurnTokens(w, r, &req)
	case "reward_get":
		s.handleRewardInfo(w, r, &req)
	case "ledger_credit":
		s.handleNativeCredit(w, r, &req)
	case "ledger_getBalance":
		s.handleNativeBalance(w, r, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}
