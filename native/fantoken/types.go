package fantoken

import (
	"bytes"
	"math/big"
)

// Mint is the on-ledger definition of a single artist's support token. One
// mint exists per artist; the artist acts as mint authority and freeze
// authority and neither can be reassigned after creation.
type Mint struct {
	Artist          [20]byte `json:"artist"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	Decimals        uint8    `json:"decimals"`
	NonTransferable bool     `json:"nonTransferable"`
	CreatedAt       int64    `json:"createdAt"`
}

// Clone returns a deep copy of the mint.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// CustomerCounter tracks the distinct buyers that have ever purchased from an
// artist. The customer set is kept sorted so membership checks and the stored
// encoding stay deterministic.
type CustomerCounter struct {
	Artist    [20]byte `json:"artist"`
	Count     uint64   `json:"count"`
	Customers [][]byte `json:"customers"`
}

// Contains reports whether the supplied buyer is already a registered
// customer.
func (c *CustomerCounter) Contains(buyer [20]byte) bool {
	if c == nil {
		return false
	}
	for _, existing := range c.Customers {
		if bytes.Equal(existing, buyer[:]) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the counter.
func (c *CustomerCounter) Clone() *CustomerCounter {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Customers = make([][]byte, len(c.Customers))
	for i, customer := range c.Customers {
		clone.Customers[i] = append([]byte(nil), customer...)
	}
	return &clone
}

// TokenAccount holds one buyer's balance of one artist's mint. Once frozen
// (or while the mint itself is non-transferable) the balance can only move
// through mint and burn paths, never through a transfer.
type TokenAccount struct {
	Artist     [20]byte `json:"artist"`
	Owner      [20]byte `json:"owner"`
	Balance    *big.Int `json:"balance"`
	Frozen     bool     `json:"frozen"`
	LastTicket uint64   `json:"lastTicket"`
	CreatedAt  int64    `json:"createdAt"`
}

// Clone returns a deep copy of the token account.
func (t *TokenAccount) Clone() *TokenAccount {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Balance != nil {
		clone.Balance = new(big.Int).Set(t.Balance)
	}
	return &clone
}

// Reward is an artist-published claimable, unlocked by burning the required
// token quantity. Active flips to false exactly once; there is deliberately
// no setter path back to active.
type Reward struct {
	Artist         [20]byte `json:"artist"`
	ID             uint64   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredTokens *big.Int `json:"requiredTokens"`
	Active         bool     `json:"active"`
	ClaimCount     uint64   `json:"claimCount"`
	CreatedAt      int64    `json:"createdAt"`
}

// Clone returns a deep copy of the reward.
func (r *Reward) Clone() *Reward {
	if r == nil {
		return nil
	}
	clone := *r
	if r.RequiredTokens != nil {
		clone.RequiredTokens = new(big.Int).Set(r.RequiredTokens)
	}
	return &clone
}
