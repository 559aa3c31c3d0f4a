package fantoken

import (
	"encoding/hex"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"dropsland/core/events"
	"dropsland/core/types"
)

const (
	maxNameLength   = 32
	maxSymbolLength = 10
	maxTitleLength  = 100
	maxDescLength   = 200
)

type engineState interface {
	MintGet(artist [20]byte) (*Mint, bool, error)
	MintPut(mint *Mint) error
	CounterGet(artist [20]byte) (*CustomerCounter, bool, error)
	CounterPut(counter *CustomerCounter) error
	TokenAccountGet(artist [20]byte, owner [20]byte) (*TokenAccount, bool, error)
	TokenAccountPut(account *TokenAccount) error
	RewardGet(artist [20]byte, rewardID uint64) (*Reward, bool, error)
	RewardPut(reward *Reward) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine wires the soulbound token business logic with persistence and event
// emission. Every operation validates its preconditions before the first
// state write, so a returned error implies no effects were applied.
type Engine struct {
	state           engineState
	emitter         events.Emitter
	nowFn           func() int64
	rewardAuthority [20]byte
}

// NewEngine constructs a fantoken engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetRewardAuthority configures the sole identity permitted to perform direct
// burns outside the reward-claim path.
func (e *Engine) SetRewardAuthority(addr [20]byte) { e.rewardAuthority = addr }

// RewardAuthority returns the configured direct-burn identity.
func (e *Engine) RewardAuthority() [20]byte { return e.rewardAuthority }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func sanitizeLabel(value string, max int) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len(trimmed) > max {
		return "", false
	}
	return trimmed, true
}

// CreateMint registers the artist's mint together with its customer counter.
// Decimals must be zero: support tokens are indivisible credits. Calling
// twice for the same artist fails because the derived mint address collides.
func (e *Engine) CreateMint(artist [20]byte, name string, symbol string, decimals uint8) (*Mint, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if decimals != 0 {
		return nil, ErrInvalidDecimals
	}
	sanitizedName, ok := sanitizeLabel(name, maxNameLength)
	if !ok {
		return nil, ErrInvalidMetadata
	}
	sanitizedSymbol, ok := sanitizeLabel(symbol, maxSymbolLength)
	if !ok {
		return nil, ErrInvalidMetadata
	}
	if _, exists, err := e.state.MintGet(artist); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrMintExists
	}
	mint := &Mint{
		Artist:          artist,
		Name:            sanitizedName,
		Symbol:          strings.ToUpper(sanitizedSymbol),
		Decimals:        0,
		NonTransferable: true,
		CreatedAt:       e.now(),
	}
	if err := e.state.MintPut(mint); err != nil {
		return nil, err
	}
	counter := &CustomerCounter{Artist: artist, Count: 0, Customers: [][]byte{}}
	if err := e.state.CounterPut(counter); err != nil {
		return nil, err
	}
	e.emit(MintCreatedEvent(hexAddr(artist), mint.Name, mint.Symbol))
	return mint.Clone(), nil
}

// MintTokens performs a payment-gated issuance: the buyer pays the artist
// amount*pricePerToken in native currency and receives amount tokens in their
// token account. The caller must be the mint authority, i.e. the artist.
// Payment and minting apply together or not at all. A buyer
// purchasing for the first time is added to the customer set and the counter
// increments by exactly one; repeat buyers leave the counter unchanged.
func (e *Engine) MintTokens(artist [20]byte, caller [20]byte, buyer [20]byte, amount *big.Int, buyerName string, ticketNumber uint64, pricePerToken *big.Int) (*TokenAccount, *big.Int, error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if pricePerToken == nil || pricePerToken.Sign() < 0 {
		return nil, nil, ErrInvalidAmount
	}
	mint, exists, err := e.state.MintGet(artist)
	if err != nil {
		return nil, nil, err
	}
	if !exists || mint == nil {
		return nil, nil, ErrMintNotFound
	}
	if mint.Artist != caller {
		return nil, nil, ErrUnauthorized
	}
	counter, exists, err := e.state.CounterGet(artist)
	if err != nil {
		return nil, nil, err
	}
	if !exists || counter == nil {
		return nil, nil, ErrMintNotFound
	}
	payment := new(big.Int).Mul(amount, pricePerToken)

	buyerAccount, err := e.state.GetAccount(buyer[:])
	if err != nil {
		return nil, nil, err
	}
	buyerAccount = ensureAccount(buyerAccount)
	if buyerAccount.Balance.Cmp(payment) < 0 {
		return nil, nil, ErrInsufficientFunds
	}

	tokenAccount, exists, err := e.state.TokenAccountGet(artist, buyer)
	if err != nil {
		return nil, nil, err
	}
	if !exists || tokenAccount == nil {
		tokenAccount = &TokenAccount{
			Artist:    artist,
			Owner:     buyer,
			Balance:   big.NewInt(0),
			Frozen:    mint.NonTransferable,
			CreatedAt: e.now(),
		}
	}
	if tokenAccount.Balance == nil {
		tokenAccount.Balance = big.NewInt(0)
	}

	// All preconditions hold; apply the payment leg first, then the mint leg.
	// When the buyer is the artist the payment is a self-transfer and moves
	// nothing; writing debit and credit through two reads of the same account
	// would let the credit overwrite the debit.
	if payment.Sign() > 0 && buyer != artist {
		buyerAccount.Balance = new(big.Int).Sub(buyerAccount.Balance, payment)
		artistAccount, err := e.state.GetAccount(artist[:])
		if err != nil {
			return nil, nil, err
		}
		artistAccount = ensureAccount(artistAccount)
		artistAccount.Balance = new(big.Int).Add(artistAccount.Balance, payment)
		if err := e.state.PutAccount(buyer[:], buyerAccount); err != nil {
			return nil, nil, err
		}
		if err := e.state.PutAccount(artist[:], artistAccount); err != nil {
			return nil, nil, err
		}
	}

	tokenAccount.Balance = new(big.Int).Add(tokenAccount.Balance, amount)
	tokenAccount.LastTicket = ticketNumber
	if err := e.state.TokenAccountPut(tokenAccount); err != nil {
		return nil, nil, err
	}

	if !counter.Contains(buyer) {
		counter.Customers = append(counter.Customers, append([]byte(nil), buyer[:]...))
		sort.Slice(counter.Customers, func(i, j int) bool {
			return hex.EncodeToString(counter.Customers[i]) < hex.EncodeToString(counter.Customers[j])
		})
		counter.Count++
		if err := e.state.CounterPut(counter); err != nil {
			return nil, nil, err
		}
	}

	e.emit(TokensMintedEvent(hexAddr(artist), hexAddr(buyer), amount.String(), strings.TrimSpace(buyerName), formatUint(ticketNumber), payment.String()))
	return tokenAccount.Clone(), payment, nil
}

// FreezeTokens marks the buyer's token account frozen so transfer
// instructions targeting it deterministically fail. Only the artist, as the
// mint's freeze authority, may freeze. Freezing an already frozen account is
// a no-op.
func (e *Engine) FreezeTokens(artist [20]byte, caller [20]byte, buyer [20]byte) (*TokenAccount, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	mint, exists, err := e.state.MintGet(artist)
	if err != nil {
		return nil, err
	}
	if !exists || mint == nil {
		return nil, ErrMintNotFound
	}
	if mint.Artist != caller {
		return nil, ErrUnauthorized
	}
	account, exists, err := e.state.TokenAccountGet(artist, buyer)
	if err != nil {
		return nil, err
	}
	if !exists || account == nil {
		return nil, ErrAccountNotFound
	}
	if account.Frozen {
		return account.Clone(), nil
	}
	account.Frozen = true
	if err := e.state.TokenAccountPut(account); err != nil {
		return nil, err
	}
	e.emit(AccountFrozenEvent(hexAddr(artist), hexAddr(buyer)))
	return account.Clone(), nil
}

// VerifyNonTransferable reports whether soulbound enforcement is active for
// the buyer's holdings of the artist's mint. It never mutates state and only
// fails when the mint itself does not exist.
func (e *Engine) VerifyNonTransferable(artist [20]byte, buyer [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	mint, exists, err := e.state.MintGet(artist)
	if err != nil {
		return false, err
	}
	if !exists || mint == nil {
		return false, ErrMintNotFound
	}
	if mint.NonTransferable {
		return true, nil
	}
	account, exists, err := e.state.TokenAccountGet(artist, buyer)
	if err != nil {
		return false, err
	}
	if !exists || account == nil {
		return false, nil
	}
	return account.Frozen, nil
}

// TransferTokens rejects any attempt to move tokens between owners. The
// enforcement flags are checked before the amount, so zero-amount transfers
// are rejected too, and the caller identity is irrelevant.
func (e *Engine) TransferTokens(caller [20]byte, artist [20]byte, from [20]byte, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	mint, exists, err := e.state.MintGet(artist)
	if err != nil {
		return err
	}
	if !exists || mint == nil {
		return ErrMintNotFound
	}
	if mint.NonTransferable {
		return ErrTransferNotAllowed
	}
	account, exists, err := e.state.TokenAccountGet(artist, from)
	if err != nil {
		return err
	}
	if exists && account != nil && account.Frozen {
		return ErrTransferNotAllowed
	}
	// Mints are always created non-transferable, so this path is unreachable
	// today. It stays explicit so a future transferable mint cannot silently
	// skip the flag checks above.
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return ErrTransferNotAllowed
}

// CustomerCount returns the number of distinct buyers that have successfully
// purchased from the artist.
func (e *Engine) CustomerCount(artist [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	counter, exists, err := e.state.CounterGet(artist)
	if err != nil {
		return 0, err
	}
	if !exists || counter == nil {
		return 0, ErrMintNotFound
	}
	return counter.Count, nil
}

// Supply derives the mint's total supply by summing every customer's token
// account. Supply is never stored redundantly.
func (e *Engine) Supply(artist [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	counter, exists, err := e.state.CounterGet(artist)
	if err != nil {
		return nil, err
	}
	if !exists || counter == nil {
		return nil, ErrMintNotFound
	}
	total := big.NewInt(0)
	for _, customer := range counter.Customers {
		var owner [20]byte
		copy(owner[:], customer)
		account, exists, err := e.state.TokenAccountGet(artist, owner)
		if err != nil {
			return nil, err
		}
		if exists && account != nil && account.Balance != nil {
			total = new(big.Int).Add(total, account.Balance)
		}
	}
	return total, nil
}

// Balance returns the buyer's token balance for the artist's mint. Buyers
// without a token account hold zero.
func (e *Engine) Balance(artist [20]byte, buyer [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, exists, err := e.state.MintGet(artist); err != nil {
		return nil, err
	} else if !exists {
		return nil, ErrMintNotFound
	}
	account, exists, err := e.state.TokenAccountGet(artist, buyer)
	if err != nil {
		return nil, err
	}
	if !exists || account == nil || account.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(account.Balance), nil
}

// AddReward publishes a reward claimable by burning requiredTokens. Only the
// artist that owns the mint may publish, and the (artist, rewardID) pair must
// be unused.
func (e *Engine) AddReward(artist [20]byte, caller [20]byte, rewardID uint64, title string, description string, requiredTokens *big.Int) (*Reward, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	mint, exists, err := e.state.MintGet(artist)
	if err != nil {
		return nil, err
	}
	if !exists || mint == nil {
		return nil, ErrMintNotFound
	}
	if mint.Artist != caller {
		return nil, ErrUnauthorized
	}
	sanitizedTitle, ok := sanitizeLabel(title, maxTitleLength)
	if !ok {
		return nil, ErrInvalidMetadata
	}
	if len(description) > maxDescLength {
		return nil, ErrInvalidMetadata
	}
	if requiredTokens == nil || requiredTokens.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, exists, err := e.state.RewardGet(artist, rewardID); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrRewardExists
	}
	reward := &Reward{
		Artist:         artist,
		ID:             rewardID,
		Title:          sanitizedTitle,
		Description:    strings.TrimSpace(description),
		RequiredTokens: new(big.Int).Set(requiredTokens),
		Active:         true,
		ClaimCount:     0,
		CreatedAt:      e.now(),
	}
	if err := e.state.RewardPut(reward); err != nil {
		return nil, err
	}
	e.emit(RewardAddedEvent(hexAddr(artist), formatUint(rewardID), reward.Title, reward.RequiredTokens.String()))
	return reward.Clone(), nil
}

// RemoveReward retires a reward. The transition is terminal: claims fail from
// then on and the claim count never changes again. Removing an already
// removed reward is an error so callers can tell a stale retry from success.
func (e *Engine) RemoveReward(artist [20]byte, caller [20]byte, rewardID uint64) (*Reward, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	reward, exists, err := e.state.RewardGet(artist, rewardID)
	if err != nil {
		return nil, err
	}
	if !exists || reward == nil {
		return nil, ErrRewardNotFound
	}
	if reward.Artist != caller {
		return nil, ErrUnauthorized
	}
	if !reward.Active {
		return nil, ErrRewardAlreadyRemoved
	}
	reward.Active = false
	if err := e.state.RewardPut(reward); err != nil {
		return nil, err
	}
	e.emit(RewardRemovedEvent(hexAddr(artist), formatUint(rewardID), reward.Title))
	return reward.Clone(), nil
}

// ClaimReward burns exactly the reward's required tokens from the buyer's
// token account and increments the claim count. This is the one path where
// the buyer's own signature suffices to reduce their balance, because the
// reduction is gated entirely by the reward's published terms.
func (e *Engine) ClaimReward(buyer [20]byte, artist [20]byte, rewardID uint64) (*Reward, *TokenAccount, error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	reward, exists, err := e.state.RewardGet(artist, rewardID)
	if err != nil {
		return nil, nil, err
	}
	if !exists || reward == nil {
		return nil, nil, ErrRewardNotFound
	}
	if !reward.Active {
		return nil, nil, ErrRewardInactive
	}
	account, exists, err := e.state.TokenAccountGet(artist, buyer)
	if err != nil {
		return nil, nil, err
	}
	if !exists || account == nil || account.Balance == nil {
		return nil, nil, ErrInsufficientTokenBalance
	}
	required := reward.RequiredTokens
	if required == nil || required.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if account.Balance.Cmp(required) < 0 {
		return nil, nil, ErrInsufficientTokenBalance
	}
	account.Balance = new(big.Int).Sub(account.Balance, required)
	if err := e.state.TokenAccountPut(account); err != nil {
		return nil, nil, err
	}
	reward.ClaimCount++
	if err := e.state.RewardPut(reward); err != nil {
		return nil, nil, err
	}
	e.emit(RewardClaimedEvent(hexAddr(artist), hexAddr(buyer), formatUint(rewardID), reward.Title, required.String()))
	return reward.Clone(), account.Clone(), nil
}

// BurnTokens destroys tokens from a buyer's account outside the claim path.
// Only the configured reward authority may call it; the artist and the buyer
// themselves are rejected. The buyer must be a registered customer of the
// artist.
func (e *Engine) BurnTokens(caller [20]byte, artist [20]byte, buyer [20]byte, amount *big.Int) (*TokenAccount, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if isZeroAddress(e.rewardAuthority) {
		return nil, ErrRewardAuthorityNotSet
	}
	if caller != e.rewardAuthority {
		return nil, ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, exists, err := e.state.MintGet(artist); err != nil {
		return nil, err
	} else if !exists {
		return nil, ErrMintNotFound
	}
	counter, exists, err := e.state.CounterGet(artist)
	if err != nil {
		return nil, err
	}
	if !exists || counter == nil || !counter.Contains(buyer) {
		return nil, ErrNotCustomer
	}
	account, exists, err := e.state.TokenAccountGet(artist, buyer)
	if err != nil {
		return nil, err
	}
	if !exists || account == nil || account.Balance == nil {
		return nil, ErrInsufficientTokenBalance
	}
	if account.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientTokenBalance
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	if err := e.state.TokenAccountPut(account); err != nil {
		return nil, err
	}
	e.emit(TokensBurnedEvent(hexAddr(artist), hexAddr(buyer), hexAddr(caller), amount.String()))
	return account.Clone(), nil
}

// MintInfo returns the artist's mint without mutating state.
func (e *Engine) MintInfo(artist [20]byte) (*Mint, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	mint, exists, err := e.state.MintGet(artist)
	if err != nil {
		return nil, err
	}
	if !exists || mint == nil {
		return nil, ErrMintNotFound
	}
	return mint.Clone(), nil
}

// RewardInfo returns a reward without mutating state.
func (e *Engine) RewardInfo(artist [20]byte, rewardID uint64) (*Reward, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	reward, exists, err := e.state.RewardGet(artist, rewardID)
	if err != nil {
		return nil, err
	}
	if !exists || reward == nil {
		return nil, ErrRewardNotFound
	}
	return reward.Clone(), nil
}
