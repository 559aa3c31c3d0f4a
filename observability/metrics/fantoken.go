package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type FantokenMetrics struct {
	mintsCreated      prometheus.Counter
	tokensIssued      prometheus.Counter
	rewardClaims      prometheus.Counter
	tokensBurned      prometheus.Counter
	transfersRejected prometheus.Counter
}

var (
	fantokenOnce     sync.Once
	fantokenRegistry *FantokenMetrics
)

func Fantoken() *FantokenMetrics {
	fantokenOnce.Do(func() {
		fantokenRegistry = &FantokenMetrics{
			mintsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fantoken_mints_created_total",
				Help: "Count of artist mints registered.",
			}),
			tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fantoken_tokens_issued_total",
				Help: "Total support tokens issued across all mints.",
			}),
			rewardClaims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fantoken_reward_claims_total",
				Help: "Count of successful reward claims.",
			}),
			tokensBurned: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fantoken_tokens_burned_total",
				Help: "Total tokens destroyed through claims and direct burns.",
			}),
			transfersRejected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "fantoken_transfers_rejected_total",
				Help: "Count of transfer attempts rejected by soulbound enforcement.",
			}),
		}
		prometheus.MustRegister(
			fantokenRegistry.mintsCreated,
			fantokenRegistry.tokensIssued,
			fantokenRegistry.rewardClaims,
			fantokenRegistry.tokensBurned,
			fantokenRegistry.transfersRejected,
		)
	})
	return fantokenRegistry
}

func amountValue(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	return value
}

// MintCreated records a newly registered artist mint.
func (m *FantokenMetrics) MintCreated() {
	if m == nil {
		return
	}
	m.mintsCreated.Inc()
}

// TokensIssued records a successful issuance of the given token quantity.
func (m *FantokenMetrics) TokensIssued(amount *big.Int) {
	if m == nil {
		return
	}
	m.tokensIssued.Add(amountValue(amount))
}

// RewardClaimed records a successful claim and the tokens it burned.
func (m *FantokenMetrics) RewardClaimed(burned *big.Int) {
	if m == nil {
		return
	}
	m.rewardClaims.Inc()
	m.tokensBurned.Add(amountValue(burned))
}

// TokensBurned records a direct burn by the reward authority.
func (m *FantokenMetrics) TokensBurned(amount *big.Int) {
	if m == nil {
		return
	}
	m.tokensBurned.Add(amountValue(amount))
}

// TransferRejected records a transfer attempt stopped by soulbound
// enforcement.
func (m *FantokenMetrics) TransferRejected() {
	if m == nil {
		return
	}
	m.transfersRejected.Inc()
}
