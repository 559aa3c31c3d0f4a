package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"dropsland/core/types"
	"dropsland/crypto"
	"dropsland/native/fantoken"
)

type createMintParams struct {
	Caller   string `json:"caller"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type mintTokensParams struct {
	Artist        string `json:"artist"`
	Caller        string `json:"caller"`
	Buyer         string `json:"buyer"`
	Amount        string `json:"amount"`
	BuyerName     string `json:"buyerName"`
	TicketNumber  uint64 `json:"ticketNumber"`
	PricePerToken string `json:"pricePerToken"`
}

type freezeTokensParams struct {
	Artist string `json:"artist"`
	Caller string `json:"caller"`
	Buyer  string `json:"buyer"`
}

type verifyParams struct {
	Artist string `json:"artist"`
	Buyer  string `json:"buyer"`
}

type transferParams struct {
	Caller string `json:"caller"`
	Artist string `json:"artist"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type artistParams struct {
	Artist string `json:"artist"`
}

type balanceParams struct {
	Artist string `json:"artist"`
	Buyer  string `json:"buyer"`
}

type addRewardParams struct {
	Artist         string `json:"artist"`
	Caller         string `json:"caller"`
	RewardID       uint64 `json:"rewardId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	RequiredTokens string `json:"requiredTokens"`
}

type rewardIDParams struct {
	Artist   string `json:"artist"`
	Caller   string `json:"caller"`
	RewardID uint64 `json:"rewardId"`
}

type burnTokensParams struct {
	Caller string `json:"caller"`
	Artist string `json:"artist"`
	Buyer  string `json:"buyer"`
	Amount string `json:"amount"`
}

type addressParams struct {
	Address string `json:"address"`
}

type creditParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type mintResult struct {
	Artist          string `json:"artist"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Decimals        uint8  `json:"decimals"`
	NonTransferable bool   `json:"nonTransferable"`
	CreatedAt       int64  `json:"createdAt"`
	Receipt         *types.TxReceipt `json:"receipt,omitempty"`
}

type tokenAccountResult struct {
	Artist     string `json:"artist"`
	Owner      string `json:"owner"`
	Balance    string `json:"balance"`
	Frozen     bool   `json:"frozen"`
	LastTicket uint64 `json:"lastTicket"`
	Payment    string `json:"payment,omitempty"`
	Receipt    *types.TxReceipt `json:"receipt,omitempty"`
}

type rewardResult struct {
	Artist         string `json:"artist"`
	RewardID       uint64 `json:"rewardId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	RequiredTokens string `json:"requiredTokens"`
	Active         bool   `json:"active"`
	ClaimCount     uint64 `json:"claimCount"`
	Receipt        *types.TxReceipt `json:"receipt,omitempty"`
}

type claimResult struct {
	Reward  rewardResult       `json:"reward"`
	Account tokenAccountResult `json:"account"`
	Receipt *types.TxReceipt   `json:"receipt"`
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.DropPrefix, addr[:]).String()
}

func decodeAddressParam(value string, field string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, fmt.Errorf("invalid %s address: %w", field, err)
	}
	if addr.Prefix() != crypto.DropPrefix {
		return out, fmt.Errorf("invalid %s address: prefix must be %q", field, crypto.DropPrefix)
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("amount must be a base-10 integer")
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid parameter object: %w", err)
	}
	return nil
}

func formatMint(mint *fantoken.Mint, receipt *types.TxReceipt) mintResult {
	return mintResult{
		Artist:          formatAddress(mint.Artist),
		Name:            mint.Name,
		Symbol:          mint.Symbol,
		Decimals:        mint.Decimals,
		NonTransferable: mint.NonTransferable,
		CreatedAt:       mint.CreatedAt,
		Receipt:         receipt,
	}
}

func formatTokenAccount(account *fantoken.TokenAccount, receipt *types.TxReceipt) tokenAccountResult {
	return tokenAccountResult{
		Artist:     formatAddress(account.Artist),
		Owner:      formatAddress(account.Owner),
		Balance:    bigString(account.Balance),
		Frozen:     account.Frozen,
		LastTicket: account.LastTicket,
		Receipt:    receipt,
	}
}

func formatReward(reward *fantoken.Reward, receipt *types.TxReceipt) rewardResult {
	return rewardResult{
		Artist:         formatAddress(reward.Artist),
		RewardID:       reward.ID,
		Title:          reward.Title,
		Description:    reward.Description,
		RequiredTokens: bigString(reward.RequiredTokens),
		Active:         reward.Active,
		ClaimCount:     reward.ClaimCount,
		Receipt:        receipt,
	}
}

func (s *Server) handleCreateMint(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params createMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	mint, receipt, err := s.node.CreateMint(artist, params.Name, params.Symbol, params.Decimals)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatMint(mint, receipt))
}

func (s *Server) handleMintTokens(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params mintTokensParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeAddressParam(params.Buyer, "buyer")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount(params.PricePerToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, payment, receipt, err := s.node.MintTokens(artist, caller, buyer, amount, params.BuyerName, params.TicketNumber, price)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := formatTokenAccount(account, receipt)
	result.Payment = bigString(payment)
	writeResult(w, req.ID, result)
}

func (s *Server) handleFreezeTokens(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params freezeTokensParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeAddressParam(params.Buyer, "buyer")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, receipt, err := s.node.FreezeTokens(artist, caller, buyer)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatTokenAccount(account, receipt))
}

func (s *Server) handleVerifyNonTransferable(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params verifyParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeAddressParam(params.Buyer, "buyer")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	enforced, err := s.node.VerifyNonTransferable(artist, buyer)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"nonTransferable": enforced})
}

func (s *Server) handleTransferTokens(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params transferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	from, err := decodeAddressParam(params.From, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := decodeAddressParam(params.To, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.TransferTokens(caller, artist, from, to, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	// Unreachable while every mint is non-transferable; kept for protocol
	// completeness.
	writeResult(w, req.ID, map[string]string{"status": types.ReceiptStatusOK})
}

func (s *Server) handleCustomerCount(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artistParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	count, err := s.node.CustomerCount(artist)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params balanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeAddressParam(params.Buyer, "buyer")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.TokenBalance(artist, buyer)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": bigString(balance)})
}

func (s *Server) handleTokenSupply(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artistParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	supply, err := s.node.TokenSupply(artist)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"supply": bigString(supply)})
}

func (s *Server) handleMintInfo(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artistParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	mint, err := s.node.MintInfo(artist)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatMint(mint, nil))
}

func (s *Server) handleAddReward(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params addRewardParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	required, err := parseAmount(params.RequiredTokens)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, receipt, err := s.node.AddReward(artist, caller, params.RewardID, params.Title, params.Description, required)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatReward(reward, receipt))
}

func (s *Server) handleRemoveReward(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params rewardIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, receipt, err := s.node.RemoveReward(artist, caller, params.RewardID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatReward(reward, receipt))
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params rewardIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, account, receipt, err := s.node.ClaimReward(buyer, artist, params.RewardID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{
		Reward:  formatReward(reward, nil),
		Account: formatTokenAccount(account, nil),
		Receipt: receipt,
	})
}

func (s *Server) handleBurnTokens(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params burnTokensParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeAddressParam(params.Buyer, "buyer")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, receipt, err := s.node.BurnTokens(caller, artist, buyer, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatTokenAccount(account, receipt))
}

func (s *Server) handleRewardInfo(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params rewardIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	artist, err := decodeAddressParam(params.Artist, "artist")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, err := s.node.RewardInfo(artist, params.RewardID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatReward(reward, nil))
}

func (s *Server) handleNativeCredit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params creditParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := decodeAddressParam(params.Address, "address")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.NativeCredit(addr, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": types.ReceiptStatusOK})
}

func (s *Server) handleNativeBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := decodeAddressParam(params.Address, "address")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.NativeBalance(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": bigString(balance)})
}
