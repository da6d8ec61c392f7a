package send

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/w3send/internal/contract"
	"github.com/Mohsinsiddi/w3send/internal/gasfeed"
	"github.com/ethereum/go-ethereum/common"
)

// FixedTransferGasLimit is the conservative gas-unit ceiling used by the
// feed-based estimator; a plain ERC-20 transfer stays well under it.
const FixedTransferGasLimit = 50_000

// Fee buffer: pad the tip and fee cap by 15% so the quote doesn't undershoot
// when the next block's base fee moves.
const (
	feeBufferNum = 115
	feeBufferDen = 100
)

// Estimate holds gas pricing for a pending transfer. All values are wei
// except GasLimit (units).
type Estimate struct {
	GasLimit             uint64
	BaseFee              *big.Int // nil on pre-EIP-1559 chains
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// EffectiveGasPrice is the per-unit price the chain would actually charge:
// min(maxFeePerGas, baseFee + maxPriorityFeePerGas).
func (e *Estimate) EffectiveGasPrice() *big.Int {
	if e.MaxFeePerGas == nil {
		return nil
	}
	if e.BaseFee == nil || e.MaxPriorityFeePerGas == nil {
		return e.MaxFeePerGas
	}
	sum := new(big.Int).Add(e.BaseFee, e.MaxPriorityFeePerGas)
	if sum.Cmp(e.MaxFeePerGas) < 0 {
		return sum
	}
	return e.MaxFeePerGas
}

func buffered(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	out := new(big.Int).Mul(x, big.NewInt(feeBufferNum))
	return out.Div(out, big.NewInt(feeBufferDen))
}

// NewEstimate prices gasLimit units from the node's suggested fees. The tip
// is buffered, and maxFee = 2*baseFee + tip survives a full base-fee bump
// between quoting and inclusion.
func NewEstimate(gasLimit uint64, baseFee, tip *big.Int) *Estimate {
	tip = buffered(tip)
	maxFee := tip
	if baseFee != nil {
		maxFee = new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	}
	return &Estimate{
		GasLimit:             gasLimit,
		BaseFee:              baseFee,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	}
}

// Estimator produces a gas estimate for the transfer being composed.
// A nil estimate with a nil error means "pending": inputs are incomplete
// (no valid recipient yet) or data hasn't arrived.
type Estimator interface {
	Estimate(ctx context.Context, to string, amount *big.Int) (*Estimate, error)
}

// gasClient is the slice of chain.EVMClient the estimators consume.
type gasClient interface {
	EstimateGas(ctx context.Context, from, to, data string, value *big.Int) (uint64, error)
	MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error)
	BaseFee(ctx context.Context) (*big.Int, error)
}

// estimateKey identifies the inputs an estimate was computed from. A new
// estimate is only computed when the key changes — not on every refresh.
type estimateKey struct {
	to      string
	amount  string
	baseFee string
}

func keyFor(to string, amount, baseFee *big.Int) estimateKey {
	k := estimateKey{to: to}
	if amount != nil {
		k.amount = amount.String()
	}
	if baseFee != nil {
		k.baseFee = baseFee.String()
	}
	return k
}

// SimulationEstimator asks the node to simulate the exact transfer call and
// combines the resulting gas-unit count with the node's suggested fees.
type SimulationEstimator struct {
	client    gasClient
	tokenAddr string
	from      string

	mu   sync.Mutex
	key  estimateKey
	last *Estimate
}

// NewSimulationEstimator creates the default estimator. from is the sender
// address; simulations run against its current state.
func NewSimulationEstimator(client gasClient, tokenAddr, from string) *SimulationEstimator {
	return &SimulationEstimator{client: client, tokenAddr: tokenAddr, from: from}
}

// Estimate implements Estimator. Without a well-formed recipient there is
// nothing to simulate, so it reports pending rather than an error.
func (s *SimulationEstimator) Estimate(ctx context.Context, to string, amount *big.Int) (*Estimate, error) {
	if !common.IsHexAddress(to) || amount == nil || amount.Sign() <= 0 {
		return nil, nil
	}

	baseFee, err := s.client.BaseFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching base fee: %w", err)
	}

	s.mu.Lock()
	key := keyFor(to, amount, baseFee)
	if s.last != nil && key == s.key {
		est := s.last
		s.mu.Unlock()
		return est, nil
	}
	s.mu.Unlock()

	tip, err := s.client.MaxPriorityFeePerGas(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching priority fee: %w", err)
	}

	data, err := contract.EncodeTransfer(to, amount)
	if err != nil {
		return nil, err
	}
	gas, err := s.client.EstimateGas(ctx, s.from, s.tokenAddr, data, nil)
	if err != nil {
		return nil, fmt.Errorf("simulating transfer: %w", err)
	}

	est := NewEstimate(gas, baseFee, tip)
	s.mu.Lock()
	s.key, s.last = key, est
	s.mu.Unlock()
	return est, nil
}

// feedSource is the slice of gasfeed.Client the feed estimator consumes.
type feedSource interface {
	Suggest(ctx context.Context, confidence int) (*gasfeed.Suggestion, error)
}

// FeedEstimator skips simulation: a fixed gas limit plus fee components
// from an external gas-price feed at a fixed confidence level, combined
// with the chain's live base fee.
type FeedEstimator struct {
	client     gasClient
	feed       feedSource
	confidence int

	mu   sync.Mutex
	key  estimateKey
	last *Estimate
}

// NewFeedEstimator creates the fixed-limit estimator. confidence <= 0
// selects gasfeed.DefaultConfidence.
func NewFeedEstimator(client gasClient, feed feedSource, confidence int) *FeedEstimator {
	if confidence <= 0 {
		confidence = gasfeed.DefaultConfidence
	}
	return &FeedEstimator{client: client, feed: feed, confidence: confidence}
}

// Estimate implements Estimator.
func (f *FeedEstimator) Estimate(ctx context.Context, to string, amount *big.Int) (*Estimate, error) {
	if !common.IsHexAddress(to) || amount == nil || amount.Sign() <= 0 {
		return nil, nil
	}

	baseFee, err := f.client.BaseFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching base fee: %w", err)
	}

	f.mu.Lock()
	key := keyFor(to, amount, baseFee)
	if f.last != nil && key == f.key {
		est := f.last
		f.mu.Unlock()
		return est, nil
	}
	f.mu.Unlock()

	sug, err := f.feed.Suggest(ctx, f.confidence)
	if err != nil {
		return nil, fmt.Errorf("fetching gas feed: %w", err)
	}

	est := &Estimate{
		GasLimit:             FixedTransferGasLimit,
		BaseFee:              baseFee,
		MaxFeePerGas:         buffered(sug.MaxFeePerGas),
		MaxPriorityFeePerGas: buffered(sug.MaxPriorityFeePerGas),
	}
	f.mu.Lock()
	f.key, f.last = key, est
	f.mu.Unlock()
	return est, nil
}
