package state

import (
	"encoding/binary"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"dropsland/core/types"
	"dropsland/native/fantoken"
	"dropsland/storage"
)

// Manager reads and writes ledger state. Record addresses are derived
// deterministically from the owning artist's identity (plus the reward id for
// rewards), so any caller can locate an account without an off-chain index.
// Values are RLP-encoded; keys are keccak256 hashes of prefixed seeds.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	mintPrefix         = []byte("fantoken/mint/")
	counterPrefix      = []byte("fantoken/counter/")
	tokenAccountPrefix = []byte("fantoken/account/")
	rewardPrefix       = []byte("fantoken/reward/")
	accountPrefix      = []byte("account/")
)

// MintAddress derives the storage address of an artist's mint.
func MintAddress(artist [20]byte) []byte {
	return ethcrypto.Keccak256(append(append([]byte{}, mintPrefix...), artist[:]...))
}

// CounterAddress derives the storage address of an artist's customer counter.
func CounterAddress(artist [20]byte) []byte {
	return ethcrypto.Keccak256(append(append([]byte{}, counterPrefix...), artist[:]...))
}

// TokenAccountAddress derives the storage address of a buyer's token account
// for the given artist's mint.
func TokenAccountAddress(artist [20]byte, owner [20]byte) []byte {
	seed := append(append([]byte{}, tokenAccountPrefix...), artist[:]...)
	seed = append(seed, owner[:]...)
	return ethcrypto.Keccak256(seed)
}

// RewardAddress derives the storage address of a reward from the artist
// identity and the reward id.
func RewardAddress(artist [20]byte, rewardID uint64) []byte {
	seed := append(append([]byte{}, rewardPrefix...), artist[:]...)
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], rewardID)
	seed = append(seed, id[:]...)
	return ethcrypto.Keccak256(seed)
}

func accountKey(addr []byte) []byte {
	return ethcrypto.Keccak256(append(append([]byte{}, accountPrefix...), addr...))
}

func (m *Manager) read(key []byte, out interface{}) (bool, error) {
	ok, err := m.db.Has(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) write(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// RLP has no signed integers, so persisted records carry unix timestamps as
// uint64 and convert at the boundary.

type storedMint struct {
	Artist          [20]byte
	Name            string
	Symbol          string
	Decimals        uint8
	NonTransferable bool
	CreatedAt       uint64
}

type storedCounter struct {
	Artist    [20]byte
	Count     uint64
	Customers [][]byte
}

type storedTokenAccount struct {
	Artist     [20]byte
	Owner      [20]byte
	Balance    []byte
	Frozen     bool
	LastTicket uint64
	CreatedAt  uint64
}

type storedReward struct {
	Artist         [20]byte
	ID             uint64
	Title          string
	Description    string
	RequiredTokens []byte
	Active         bool
	ClaimCount     uint64
	CreatedAt      uint64
}

// MintGet loads the artist's mint definition.
func (m *Manager) MintGet(artist [20]byte) (*fantoken.Mint, bool, error) {
	var stored storedMint
	ok, err := m.read(MintAddress(artist), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &fantoken.Mint{
		Artist:          stored.Artist,
		Name:            stored.Name,
		Symbol:          stored.Symbol,
		Decimals:        stored.Decimals,
		NonTransferable: stored.NonTransferable,
		CreatedAt:       int64(stored.CreatedAt),
	}, true, nil
}

// MintPut persists the artist's mint definition.
func (m *Manager) MintPut(mint *fantoken.Mint) error {
	if mint == nil {
		return fmt.Errorf("state: nil mint")
	}
	return m.write(MintAddress(mint.Artist), &storedMint{
		Artist:          mint.Artist,
		Name:            mint.Name,
		Symbol:          mint.Symbol,
		Decimals:        mint.Decimals,
		NonTransferable: mint.NonTransferable,
		CreatedAt:       uint64(mint.CreatedAt),
	})
}

// CounterGet loads the artist's customer counter.
func (m *Manager) CounterGet(artist [20]byte) (*fantoken.CustomerCounter, bool, error) {
	var stored storedCounter
	ok, err := m.read(CounterAddress(artist), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	counter := &fantoken.CustomerCounter{
		Artist:    stored.Artist,
		Count:     stored.Count,
		Customers: make([][]byte, len(stored.Customers)),
	}
	for i, customer := range stored.Customers {
		counter.Customers[i] = append([]byte(nil), customer...)
	}
	return counter, true, nil
}

// CounterPut persists the artist's customer counter.
func (m *Manager) CounterPut(counter *fantoken.CustomerCounter) error {
	if counter == nil {
		return fmt.Errorf("state: nil counter")
	}
	stored := &storedCounter{
		Artist:    counter.Artist,
		Count:     counter.Count,
		Customers: make([][]byte, len(counter.Customers)),
	}
	for i, customer := range counter.Customers {
		stored.Customers[i] = append([]byte(nil), customer...)
	}
	return m.write(CounterAddress(counter.Artist), stored)
}

// TokenAccountGet loads a buyer's token account for the artist's mint.
func (m *Manager) TokenAccountGet(artist [20]byte, owner [20]byte) (*fantoken.TokenAccount, bool, error) {
	var stored storedTokenAccount
	ok, err := m.read(TokenAccountAddress(artist, owner), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &fantoken.TokenAccount{
		Artist:     stored.Artist,
		Owner:      stored.Owner,
		Balance:    bytesToBig(stored.Balance),
		Frozen:     stored.Frozen,
		LastTicket: stored.LastTicket,
		CreatedAt:  int64(stored.CreatedAt),
	}, true, nil
}

// TokenAccountPut persists a buyer's token account.
func (m *Manager) TokenAccountPut(account *fantoken.TokenAccount) error {
	if account == nil {
		return fmt.Errorf("state: nil token account")
	}
	return m.write(TokenAccountAddress(account.Artist, account.Owner), &storedTokenAccount{
		Artist:     account.Artist,
		Owner:      account.Owner,
		Balance:    bigToBytes(account.Balance),
		Frozen:     account.Frozen,
		LastTicket: account.LastTicket,
		CreatedAt:  uint64(account.CreatedAt),
	})
}

// RewardGet loads one of the artist's rewards.
func (m *Manager) RewardGet(artist [20]byte, rewardID uint64) (*fantoken.Reward, bool, error) {
	var stored storedReward
	ok, err := m.read(RewardAddress(artist, rewardID), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &fantoken.Reward{
		Artist:         stored.Artist,
		ID:             stored.ID,
		Title:          stored.Title,
		Description:    stored.Description,
		RequiredTokens: bytesToBig(stored.RequiredTokens),
		Active:         stored.Active,
		ClaimCount:     stored.ClaimCount,
		CreatedAt:      int64(stored.CreatedAt),
	}, true, nil
}

// RewardPut persists one of the artist's rewards.
func (m *Manager) RewardPut(reward *fantoken.Reward) error {
	if reward == nil {
		return fmt.Errorf("state: nil reward")
	}
	return m.write(RewardAddress(reward.Artist, reward.ID), &storedReward{
		Artist:         reward.Artist,
		ID:             reward.ID,
		Title:          reward.Title,
		Description:    reward.Description,
		RequiredTokens: bigToBytes(reward.RequiredTokens),
		Active:         reward.Active,
		ClaimCount:     reward.ClaimCount,
		CreatedAt:      uint64(reward.CreatedAt),
	})
}

// GetAccount loads the native-currency account for the given address. A
// missing account is returned as nil without an error; callers normalise.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if len(addr) == 0 {
		return nil, fmt.Errorf("state: address must not be empty")
	}
	var account types.Account
	ok, err := m.read(accountKey(addr), &account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &account, nil
}

// PutAccount persists the native-currency account for the given address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if len(addr) == 0 {
		return fmt.Errorf("state: address must not be empty")
	}
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	if account.Balance == nil {
		account = account.Clone()
		account.Balance = bigZero()
	}
	return m.write(accountKey(addr), account)
}
