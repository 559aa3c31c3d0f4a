package core

import (
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"dropsland/core/events"
	"dropsland/core/state"
	"dropsland/core/types"
	"dropsland/native/fantoken"
	"dropsland/observability/metrics"
	"dropsland/storage"
)

// Node glues the RPC surface to the fantoken engine. Every operation runs
// under stateMu for its full duration, so transactions touching the shared
// store are serialized and each one either fully applies or, on error, leaves
// no partial writes behind (the engine validates before mutating).
type Node struct {
	db      storage.Database
	manager *state.Manager

	stateMu sync.Mutex
	seq     uint64
	nowFn   func() uint64

	rewardAuthority [20]byte
}

// NewNode constructs a node over the provided database.
func NewNode(db storage.Database) *Node {
	return &Node{
		db:      db,
		manager: state.NewManager(db),
		nowFn:   func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

// SetRewardAuthority configures the identity allowed to perform direct burns.
func (n *Node) SetRewardAuthority(addr [20]byte) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.rewardAuthority = addr
}

// RewardAuthority returns the configured direct-burn identity.
func (n *Node) RewardAuthority() [20]byte {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.rewardAuthority
}

// eventCarrier is satisfied by fantoken event envelopes.
type eventCarrier interface {
	Event() *types.Event
}

// eventRecorder captures the events an operation emits so the node can attach
// them to the transaction receipt.
type eventRecorder struct {
	captured []types.Event
}

func (r *eventRecorder) Emit(evt events.Event) {
	carrier, ok := evt.(eventCarrier)
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	r.captured = append(r.captured, *payload)
}

func (n *Node) newEngine(recorder *eventRecorder) *fantoken.Engine {
	engine := fantoken.NewEngine()
	engine.SetState(n.manager)
	engine.SetEmitter(recorder)
	engine.SetRewardAuthority(n.rewardAuthority)
	return engine
}

type receiptSeed struct {
	Method    string
	Caller    []byte
	Sequence  uint64
	Timestamp uint64
}

// newReceipt derives the receipt hash from the method, caller, in-process
// sequence and a nanosecond timestamp. The timestamp keeps hashes from
// repeating after a restart resets the sequence.
func (n *Node) newReceipt(method string, caller [20]byte, recorder *eventRecorder) (*types.TxReceipt, error) {
	n.seq++
	encoded, err := rlp.EncodeToBytes(&receiptSeed{Method: method, Caller: caller[:], Sequence: n.seq, Timestamp: n.nowFn()})
	if err != nil {
		return nil, err
	}
	return &types.TxReceipt{
		Hash:   "0x" + hex.EncodeToString(ethcrypto.Keccak256(encoded)),
		Status: types.ReceiptStatusOK,
		Events: recorder.captured,
	}, nil
}

// CreateMint registers an artist mint and its customer counter.
func (n *Node) CreateMint(artist [20]byte, name string, symbol string, decimals uint8) (*fantoken.Mint, *types.TxReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	recorder := &eventRecorder{}
	mint, err := n.newEngine(recorder).CreateMint(artist, name, symbol, decimals)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := n.newReceipt("token_createMint", artist, recorder)
	if err != nil {
		return nil, nil, err
	}
	metrics.Fantoken().MintCreated()
	return mint, receipt, nil
}

// MintTokens performs a payment-gated issuance to the buyer.
func (n *Node) MintTokens(artist [20]byte, caller [20]byte, buyer [20]byte, amount *big.Int, buyerName string, ticketNumber uint64, pricePerToken *big.Int) (*fantoken.TokenAccount, *big.Int, *types.TxReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	recorder := &eventRecorder{}
	account, payment, err := n.newEngine(recorder).MintTokens(artist, caller, buyer, amount, buyerName, ticketNumber, pricePerToken)
	if err != nil {
		return nil, nil, nil, err
	}
	receipt, err := n.newReceipt("token_mint", caller, recorder)
	if err != nil {
		return nil, nil, nil, err
	}
	metrics.Fantoken().TokensIssued(amount)
	return account, payment, receipt, nil
}

// FreezeTokens marks the buyer's token account soulbound.
func (n *Node) FreezeTokens(artist [20]byte, caller [20]byte, buyer [20]byte) (*fantoken.TokenAccount, *types.TxReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	recorder := &eventRecorder{}
	account, err := n.newEngine(recorder).FreezeTokens(artist, caller, buyer)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := n.newReceipt("token_freeze", caller, recorder)
	if err != nil {
		return nil, nil, err
	}
	return account, receipt, nil
}

// VerifyNonTransferable reports whether soulbound enforcement is active.
func (n *Node) VerifyNonTransferable(artist [20]byte, buyer [20]byte) (bool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newEngine(&eventRecorder{}).VerifyNonTransferable(artist, buyer)
}

// TransferTokens attempts a token transfer; under soulbound enforcement it
// always fails. It exists so wallets receive the typed rejection instead of a
// generic failure.
func (n *Node) TransferTokens(caller [20]byte, artist [20]byte, from [20]byte, to [20]byte, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	err := n.newEngine(&eventRecorder{}).TransferTokens(caller, artist, from, to, amount)
	if errors.Is(err, fantoken.ErrTransferNotAllowed) {
		metrics.Fantoken().TransferRejected()
	}
	return err
}

// CustomerCount returns the artist's distinct-buyer tally.
func (n *Node) CustomerCount(artist [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newEngine(&eventRecorder{}).CustomerCount(artist)
}

// TokenBalance returns the buyer's token balance for the artist's mint.
func (n *Node) TokenBalance(artist [20]byte, buyer [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newEngine(&eventRecorder{}).Balance(artist, buyer)
}

// TokenSupply derives the artist mint's total supply from holder accounts.
func (n *Node) TokenSupply(artist [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newEngine(&eventRecorder{}).Supply(artist)
}

// MintInfo returns the artist's mint definition.
func (n *Node) MintInfo(artist [20]byte) (*fantoken.Mint, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newEngine(&eventRecorder{}).MintInfo(artist)
}

// AddReward publishes a claimable reward for the artist.
func (n *Node) AddReward(artist [20]byte, caller [20]byte, rewardID uint64, title string, description string, requiredTokens *big.Int) (*fantoken.Reward, *types.TxReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	recorder := &eventRecorder{}
	reward, err := n.newEngine(recorder).AddReward(artist, caller, rewardID, title, description, requiredTokens)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := n.newReceipt("reward_add", caller, recorder)
	if err != nil {
		return nil, nil, err
	}
	return reward, receipt, nil
}

// RemoveReward retires a reward permanently.
func (n *Node) RemoveReward(artist [20]byte, caller [20]byte, rewardID uint64) (*fantoken.Reward, *types.TxReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	recorder := &eventRecorder{}
	reward, err := n.newEngine(recorder).RemoveReward(artist, caller, rewardID)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := n.newReceipt("reward_remove", caller, recorder)
	if err != nil {
		return nil, nil, err
	}
	return reward, receipt, nil
}

// ClaimReward burns the required tokens and unlocks the reward for the buyer.
func (n *Node) ClaimReward(buyer [20]byte, artist [20]byte, rewardID uint64) (*fantoken.Reward, *fantoken.TokenAccount, *types.TxReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	recorder := &eventRecorder{}
	reward, account, err := n.newEngine(recorder).ClaimReward(buyer, artist, rewardID)
	if err != nil {
		return nil, nil, nil, err
	}
	receipt, err := n.newReceipt("reward_claim", buyer, recorder)
	if err != nil {
		return nil, nil, nil, err
	}
	metrics.Fantoken().RewardClaimed(reward.RequiredTokens)
	return reward, account, receipt, nil
}

// BurnTokens performs a direct burn by the reward authority.
func (n *Node) BurnTokens(caller [20]byte, artist [20]byte, buyer [20]byte, amount *big.Int) (*fantoken.TokenAccount, *types.TxReceipt, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	recorder := &eventRecorder{}
	account, err := n.newEngine(recorder).BurnTokens(caller, artist, buyer, amount)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := n.newReceipt("reward_burn", caller, recorder)
	if err != nil {
		return nil, nil, err
	}
	metrics.Fantoken().TokensBurned(amount)
	return account, receipt, nil
}

// RewardInfo returns a reward without mutating state.
func (n *Node) RewardInfo(artist [20]byte, rewardID uint64) (*fantoken.Reward, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newEngine(&eventRecorder{}).RewardInfo(artist, rewardID)
}

// NativeCredit funds an address with native currency. The runtime this ledger
// models would normally do this out of band; the node exposes it for genesis
// funding and tests.
func (n *Node) NativeCredit(addr [20]byte, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return fantoken.ErrInvalidAmount
	}
	account, err := n.manager.GetAccount(addr[:])
	if err != nil {
		return err
	}
	if account == nil {
		account = &types.Account{Balance: big.NewInt(0)}
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return n.manager.PutAccount(addr[:], account)
}

// NativeBalance returns the native-currency balance for an address.
func (n *Node) NativeBalance(addr [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	account, err := n.manager.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	if account == nil || account.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(account.Balance), nil
}
