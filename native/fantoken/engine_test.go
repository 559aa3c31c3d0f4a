package fantoken

import (
	"errors"
	"math/big"
	"testing"

	"dropsland/core/types"
)

type mockState struct {
	mints    map[string]*Mint
	counters map[string]*CustomerCounter
	tokens   map[string]*TokenAccount
	rewards  map[string]*Reward
	accounts map[string]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		mints:    make(map[string]*Mint),
		counters: make(map[string]*CustomerCounter),
		tokens:   make(map[string]*TokenAccount),
		rewards:  make(map[string]*Reward),
		accounts: make(map[string]*types.Account),
	}
}

func tokenKey(artist [20]byte, owner [20]byte) string {
	return string(append(append([]byte{}, artist[:]...), owner[:]...))
}

func rewardKey(artist [20]byte, id uint64) string {
	buf := append([]byte{}, artist[:]...)
	for shift := 0; shift < 64; shift += 8 {
		buf = append(buf, byte(id>>shift))
	}
	return string(buf)
}

func (m *mockState) MintGet(artist [20]byte) (*Mint, bool, error) {
	mint, ok := m.mints[string(artist[:])]
	if !ok {
		return nil, false, nil
	}
	return mint.Clone(), true, nil
}

func (m *mockState) MintPut(mint *Mint) error {
	if mint == nil {
		return nil
	}
	m.mints[string(mint.Artist[:])] = mint.Clone()
	return nil
}

func (m *mockState) CounterGet(artist [20]byte) (*CustomerCounter, bool, error) {
	counter, ok := m.counters[string(artist[:])]
	if !ok {
		return nil, false, nil
	}
	return counter.Clone(), true, nil
}

func (m *mockState) CounterPut(counter *CustomerCounter) error {
	if counter == nil {
		return nil
	}
	m.counters[string(counter.Artist[:])] = counter.Clone()
	return nil
}

func (m *mockState) TokenAccountGet(artist [20]byte, owner [20]byte) (*TokenAccount, bool, error) {
	account, ok := m.tokens[tokenKey(artist, owner)]
	if !ok {
		return nil, false, nil
	}
	return account.Clone(), true, nil
}

func (m *mockState) TokenAccountPut(account *TokenAccount) error {
	if account == nil {
		return nil
	}
	m.tokens[tokenKey(account.Artist, account.Owner)] = account.Clone()
	return nil
}

func (m *mockState) RewardGet(artist [20]byte, id uint64) (*Reward, bool, error) {
	reward, ok := m.rewards[rewardKey(artist, id)]
	if !ok {
		return nil, false, nil
	}
	return reward.Clone(), true, nil
}

func (m *mockState) RewardPut(reward *Reward) error {
	if reward == nil {
		return nil
	}
	m.rewards[rewardKey(reward.Artist, reward.ID)] = reward.Clone()
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	if acc, ok := m.accounts[string(addr)]; ok && acc != nil {
		return acc.Clone(), nil
	}
	return nil, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		delete(m.accounts, string(addr))
		return nil
	}
	m.accounts[string(addr)] = account.Clone()
	return nil
}

func (m *mockState) setAccount(addr [20]byte, amount int64) {
	m.accounts[string(addr[:])] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) account(addr [20]byte) *types.Account {
	if acc, ok := m.accounts[string(addr[:])]; ok {
		return acc.Clone()
	}
	return &types.Account{Balance: big.NewInt(0)}
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestEngine(t *testing.T) (*Engine, *mockState) {
	t.Helper()
	state := newMockState()
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, state
}

func mustCreateMint(t *testing.T, engine *Engine, artist [20]byte) {
	t.Helper()
	if _, err := engine.CreateMint(artist, "Studio Token", "STU", 0); err != nil {
		t.Fatalf("create mint failed: %v", err)
	}
}

func TestCreateMintInitialisesCounter(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)

	mint, err := engine.CreateMint(artist, "Studio Token", "stu", 0)
	if err != nil {
		t.Fatalf("create mint failed: %v", err)
	}
	if !mint.NonTransferable {
		t.Fatalf("mint must be created non-transferable")
	}
	if mint.Symbol != "STU" {
		t.Fatalf("symbol not normalised: %q", mint.Symbol)
	}
	counter, ok, err := state.CounterGet(artist)
	if err != nil || !ok {
		t.Fatalf("counter missing after mint creation: %v", err)
	}
	if counter.Count != 0 || len(counter.Customers) != 0 {
		t.Fatalf("counter not initialised empty: count=%d customers=%d", counter.Count, len(counter.Customers))
	}
}

func TestCreateMintRejectsDuplicates(t *testing.T) {
	engine, _ := newTestEngine(t)
	artist := addr(0x01)
	mustCreateMint(t, engine, artist)

	if _, err := engine.CreateMint(artist, "Second", "SEC", 0); !errors.Is(err, ErrMintExists) {
		t.Fatalf("expected ErrMintExists, got %v", err)
	}
}

func TestCreateMintValidatesInputs(t *testing.T) {
	engine, _ := newTestEngine(t)
	artist := addr(0x01)

	if _, err := engine.CreateMint(artist, "Studio", "STU", 2); !errors.Is(err, ErrInvalidDecimals) {
		t.Fatalf("expected ErrInvalidDecimals, got %v", err)
	}
	if _, err := engine.CreateMint(artist, "   ", "STU", 0); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for empty name, got %v", err)
	}
	if _, err := engine.CreateMint(artist, "Studio", "WAYTOOLONGSYMBOL", 0); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for long symbol, got %v", err)
	}
}

func TestMintTokensPaysArtistAndCountsBuyerOnce(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyer, 200_000)
	state.setAccount(artist, 0)

	account, payment, err := engine.MintTokens(artist, artist, buyer, big.NewInt(100), "Alice", 1, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if payment.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("unexpected payment: %s", payment)
	}
	if account.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected token balance: %s", account.Balance)
	}
	if got := state.account(buyer).Balance; got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("buyer not debited: %s", got)
	}
	if got := state.account(artist).Balance; got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("artist not credited: %s", got)
	}
	if count, err := engine.CustomerCount(artist); err != nil || count != 1 {
		t.Fatalf("expected 1 customer, got %d (%v)", count, err)
	}

	// Same buyer again: balance grows, counter stays.
	account, _, err = engine.MintTokens(artist, artist, buyer, big.NewInt(50), "Alice", 2, big.NewInt(1000))
	if err != nil {
		t.Fatalf("second mint failed: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("unexpected token balance after repeat purchase: %s", account.Balance)
	}
	if count, _ := engine.CustomerCount(artist); count != 1 {
		t.Fatalf("repeat buyer must not grow the counter, got %d", count)
	}

	// A second buyer grows the counter to two.
	other := addr(0x03)
	state.setAccount(other, 50_000)
	if _, _, err := engine.MintTokens(artist, artist, other, big.NewInt(10), "Bob", 3, big.NewInt(1000)); err != nil {
		t.Fatalf("mint for second buyer failed: %v", err)
	}
	if count, _ := engine.CustomerCount(artist); count != 2 {
		t.Fatalf("expected 2 customers, got %d", count)
	}
}

func TestMintTokensArtistSelfPurchaseConservesFunds(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	mustCreateMint(t, engine, artist)
	state.setAccount(artist, 1000)

	account, payment, err := engine.MintTokens(artist, artist, artist, big.NewInt(10), "Artist", 1, big.NewInt(50))
	if err != nil {
		t.Fatalf("self-purchase failed: %v", err)
	}
	if payment.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected payment: %s", payment)
	}
	if account.Balance.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("unexpected token balance: %s", account.Balance)
	}
	// The payment is a self-transfer; the native balance must not move.
	if got := state.account(artist).Balance; got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("native currency not conserved: balance=%s want 1000", got)
	}
	if count, err := engine.CustomerCount(artist); err != nil || count != 1 {
		t.Fatalf("expected 1 customer, got %d (%v)", count, err)
	}

	// The self-purchase still requires covering funds.
	state.setAccount(artist, 100)
	if _, _, err := engine.MintTokens(artist, artist, artist, big.NewInt(10), "Artist", 2, big.NewInt(50)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestMintTokensAtomicOnInsufficientFunds(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyer, 500)

	_, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(10), "Alice", 1, big.NewInt(100))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := state.account(buyer).Balance; got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("buyer balance changed on failed mint: %s", got)
	}
	if _, ok, _ := state.TokenAccountGet(artist, buyer); ok {
		t.Fatalf("token account must not exist after failed mint")
	}
	if count, _ := engine.CustomerCount(artist); count != 0 {
		t.Fatalf("counter changed on failed mint: %d", count)
	}
}

func TestMintTokensValidation(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	state.setAccount(buyer, 1_000)

	if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(1), "Alice", 1, big.NewInt(1)); !errors.Is(err, ErrMintNotFound) {
		t.Fatalf("expected ErrMintNotFound before mint creation, got %v", err)
	}
	mustCreateMint(t, engine, artist)
	if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(0), "Alice", 1, big.NewInt(1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if _, _, err := engine.MintTokens(artist, buyer, buyer, big.NewInt(1), "Alice", 1, big.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-artist minter, got %v", err)
	}
}

func TestMintTokensFreeIssuance(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	mustCreateMint(t, engine, artist)

	// Zero price: no payment leg, still counted as a customer.
	account, payment, err := engine.MintTokens(artist, artist, buyer, big.NewInt(5), "Alice", 1, big.NewInt(0))
	if err != nil {
		t.Fatalf("free mint failed: %v", err)
	}
	if payment.Sign() != 0 {
		t.Fatalf("expected zero payment, got %s", payment)
	}
	if account.Balance.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected balance: %s", account.Balance)
	}
	if got := state.account(buyer).Balance; got.Sign() != 0 {
		t.Fatalf("buyer balance should be untouched, got %s", got)
	}
}

func TestFreezeTokens(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	mustCreateMint(t, engine, artist)

	if _, err := engine.FreezeTokens(artist, artist, buyer); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	state.setAccount(buyer, 1_000)
	if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(3), "Alice", 1, big.NewInt(0)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := engine.FreezeTokens(artist, buyer, buyer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-artist freezer, got %v", err)
	}
	account, err := engine.FreezeTokens(artist, artist, buyer)
	if err != nil {
		t.Fatalf("freeze failed: %v", err)
	}
	if !account.Frozen {
		t.Fatalf("account not frozen")
	}
	// Freezing twice is a no-op.
	if _, err := engine.FreezeTokens(artist, artist, buyer); err != nil {
		t.Fatalf("repeat freeze failed: %v", err)
	}
}

func TestVerifyNonTransferable(t *testing.T) {
	engine, _ := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)

	if _, err := engine.VerifyNonTransferable(artist, buyer); !errors.Is(err, ErrMintNotFound) {
		t.Fatalf("expected ErrMintNotFound, got %v", err)
	}
	mustCreateMint(t, engine, artist)
	enforced, err := engine.VerifyNonTransferable(artist, buyer)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !enforced {
		t.Fatalf("mint-level enforcement must report active")
	}
}

func TestTransfersAlwaysRejected(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyerA := addr(0x02)
	buyerB := addr(0x03)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyerA, 1_000)
	if _, _, err := engine.MintTokens(artist, artist, buyerA, big.NewInt(90), "Alice", 1, big.NewInt(0)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	signers := map[string][20]byte{"buyer": buyerA, "artist": artist, "third party": addr(0x7F)}
	for name, signer := range signers {
		if err := engine.TransferTokens(signer, artist, buyerA, buyerB, big.NewInt(10)); !errors.Is(err, ErrTransferNotAllowed) {
			t.Fatalf("transfer signed by %s: expected ErrTransferNotAllowed, got %v", name, err)
		}
	}
	// Zero-amount transfers are rejected on the flag, not the amount.
	if err := engine.TransferTokens(buyerA, artist, buyerA, buyerB, big.NewInt(0)); !errors.Is(err, ErrTransferNotAllowed) {
		t.Fatalf("zero-amount transfer: expected ErrTransferNotAllowed, got %v", err)
	}
	if bal, _ := engine.Balance(artist, buyerA); bal.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("balance changed by rejected transfer: %s", bal)
	}
}

func TestAddReward(t *testing.T) {
	engine, _ := newTestEngine(t)
	artist := addr(0x01)

	if _, err := engine.AddReward(artist, artist, 1, "Backstage", "", big.NewInt(60)); !errors.Is(err, ErrMintNotFound) {
		t.Fatalf("expected ErrMintNotFound before mint, got %v", err)
	}
	mustCreateMint(t, engine, artist)
	if _, err := engine.AddReward(artist, addr(0x09), 1, "Backstage", "", big.NewInt(60)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-artist, got %v", err)
	}
	if _, err := engine.AddReward(artist, artist, 1, "Backstage", "", big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero requirement, got %v", err)
	}
	reward, err := engine.AddReward(artist, artist, 1, "Backstage", "Meet the band", big.NewInt(60))
	if err != nil {
		t.Fatalf("add reward failed: %v", err)
	}
	if !reward.Active || reward.ClaimCount != 0 {
		t.Fatalf("reward not initialised active with zero claims: %+v", reward)
	}
	if _, err := engine.AddReward(artist, artist, 1, "Backstage", "", big.NewInt(60)); !errors.Is(err, ErrRewardExists) {
		t.Fatalf("expected ErrRewardExists, got %v", err)
	}
}

func TestRemoveRewardIsTerminal(t *testing.T) {
	engine, _ := newTestEngine(t)
	artist := addr(0x01)
	mustCreateMint(t, engine, artist)
	if _, err := engine.AddReward(artist, artist, 1, "Backstage", "", big.NewInt(60)); err != nil {
		t.Fatalf("add reward failed: %v", err)
	}

	if _, err := engine.RemoveReward(artist, addr(0x09), 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := engine.RemoveReward(artist, artist, 2); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected ErrRewardNotFound, got %v", err)
	}
	reward, err := engine.RemoveReward(artist, artist, 1)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if reward.Active {
		t.Fatalf("reward still active after removal")
	}
	if _, err := engine.RemoveReward(artist, artist, 1); !errors.Is(err, ErrRewardAlreadyRemoved) {
		t.Fatalf("expected ErrRewardAlreadyRemoved, got %v", err)
	}
}

func TestClaimRewardBurnsExactly(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyer, 200_000)
	if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(150), "Alice", 1, big.NewInt(1000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := engine.AddReward(artist, artist, 1, "Backstage", "", big.NewInt(60)); err != nil {
		t.Fatalf("add reward failed: %v", err)
	}

	reward, account, err := engine.ClaimReward(buyer, artist, 1)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("burn not exact: balance %s", account.Balance)
	}
	if reward.ClaimCount != 1 {
		t.Fatalf("claim count not incremented: %d", reward.ClaimCount)
	}
	// Claiming remains possible while tokens remain.
	if _, account, err = engine.ClaimReward(buyer, artist, 1); err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("second burn not exact: balance %s", account.Balance)
	}
	if _, _, err := engine.ClaimReward(buyer, artist, 1); !errors.Is(err, ErrInsufficientTokenBalance) {
		t.Fatalf("expected ErrInsufficientTokenBalance, got %v", err)
	}
}

func TestClaimRewardLifecycleErrors(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyer, 1_000)
	if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(100), "Alice", 1, big.NewInt(0)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if _, _, err := engine.ClaimReward(buyer, artist, 9); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected ErrRewardNotFound, got %v", err)
	}
	if _, err := engine.AddReward(artist, artist, 1, "Backstage", "", big.NewInt(60)); err != nil {
		t.Fatalf("add reward failed: %v", err)
	}
	if _, err := engine.RemoveReward(artist, artist, 1); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, _, err := engine.ClaimReward(buyer, artist, 1); !errors.Is(err, ErrRewardInactive) {
		t.Fatalf("expected ErrRewardInactive after removal, got %v", err)
	}
	reward, err := engine.RewardInfo(artist, 1)
	if err != nil {
		t.Fatalf("reward info failed: %v", err)
	}
	if reward.ClaimCount != 0 {
		t.Fatalf("claim count changed after removal: %d", reward.ClaimCount)
	}
}

func TestBurnTokensAuthorization(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	authority := addr(0x0A)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyer, 1_000)
	if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(100), "Alice", 1, big.NewInt(0)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if _, err := engine.BurnTokens(authority, artist, buyer, big.NewInt(10)); !errors.Is(err, ErrRewardAuthorityNotSet) {
		t.Fatalf("expected ErrRewardAuthorityNotSet, got %v", err)
	}
	engine.SetRewardAuthority(authority)

	if _, err := engine.BurnTokens(buyer, artist, buyer, big.NewInt(10)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("buyer burn: expected ErrUnauthorized, got %v", err)
	}
	if _, err := engine.BurnTokens(artist, artist, buyer, big.NewInt(10)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("artist burn: expected ErrUnauthorized, got %v", err)
	}
	account, err := engine.BurnTokens(authority, artist, buyer, big.NewInt(10))
	if err != nil {
		t.Fatalf("authority burn failed: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("unexpected balance after burn: %s", account.Balance)
	}
}

func TestBurnTokensValidation(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyer := addr(0x02)
	stranger := addr(0x03)
	authority := addr(0x0A)
	engine.SetRewardAuthority(authority)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyer, 1_000)
	if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(20), "Alice", 1, big.NewInt(0)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if _, err := engine.BurnTokens(authority, artist, buyer, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.BurnTokens(authority, artist, stranger, big.NewInt(5)); !errors.Is(err, ErrNotCustomer) {
		t.Fatalf("expected ErrNotCustomer, got %v", err)
	}
	if _, err := engine.BurnTokens(authority, artist, buyer, big.NewInt(25)); !errors.Is(err, ErrInsufficientTokenBalance) {
		t.Fatalf("expected ErrInsufficientTokenBalance, got %v", err)
	}
}

func TestSupplyDerivedFromHolders(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	buyerA := addr(0x02)
	buyerB := addr(0x03)
	authority := addr(0x0A)
	engine.SetRewardAuthority(authority)
	mustCreateMint(t, engine, artist)
	state.setAccount(buyerA, 10_000)
	state.setAccount(buyerB, 10_000)

	if _, _, err := engine.MintTokens(artist, artist, buyerA, big.NewInt(100), "Alice", 1, big.NewInt(10)); err != nil {
		t.Fatalf("mint A failed: %v", err)
	}
	if _, _, err := engine.MintTokens(artist, artist, buyerB, big.NewInt(40), "Bob", 2, big.NewInt(10)); err != nil {
		t.Fatalf("mint B failed: %v", err)
	}
	supply, err := engine.Supply(artist)
	if err != nil {
		t.Fatalf("supply failed: %v", err)
	}
	if supply.Cmp(big.NewInt(140)) != 0 {
		t.Fatalf("unexpected supply: %s", supply)
	}
	if _, err := engine.BurnTokens(authority, artist, buyerA, big.NewInt(30)); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	if supply, _ = engine.Supply(artist); supply.Cmp(big.NewInt(110)) != 0 {
		t.Fatalf("supply not reduced by burn: %s", supply)
	}
}

func TestCounterInvariantHolds(t *testing.T) {
	engine, state := newTestEngine(t)
	artist := addr(0x01)
	mustCreateMint(t, engine, artist)

	buyers := []byte{0x10, 0x11, 0x12, 0x10, 0x11, 0x13}
	for i, b := range buyers {
		buyer := addr(b)
		state.setAccount(buyer, 10_000)
		if _, _, err := engine.MintTokens(artist, artist, buyer, big.NewInt(1), "fan", uint64(i), big.NewInt(1)); err != nil {
			t.Fatalf("mint %d failed: %v", i, err)
		}
		counter, ok, err := state.CounterGet(artist)
		if err != nil || !ok {
			t.Fatalf("counter read failed: %v", err)
		}
		if counter.Count != uint64(len(counter.Customers)) {
			t.Fatalf("invariant broken after mint %d: count=%d set=%d", i, counter.Count, len(counter.Customers))
		}
	}
	if count, _ := engine.CustomerCount(artist); count != 4 {
		t.Fatalf("expected 4 distinct buyers, got %d", count)
	}
}
