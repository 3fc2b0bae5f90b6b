package payments

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/chain"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/metrics"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/pkg/validate"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultConfirmTimeout = 90 * time.Second
	DefaultMaxPolls       = 45
)

var (
	ErrInvalidTxHash       = errors.New("invalid transaction hash")
	ErrConfirmationTimeout = errors.New("payment confirmation timed out")
	ErrTransactionFailed   = errors.New("payment transaction failed")
	ErrWrongRecipient      = errors.New("payment sent to wrong recipient")
	ErrInsufficientAmount  = errors.New("payment amount below price")
)

// ChainReader is the subset of the RPC client the verifier needs.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, txHash string) (chain.Receipt, error)
	TransactionByHash(ctx context.Context, txHash string) (chain.Transaction, error)
}

type VerifierConfig struct {
	Recipient      string
	StrictAmount   bool
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	MaxPolls       int
}

// Verifier waits for a native transfer to the platform wallet to be mined.
type Verifier struct {
	chain ChainReader
	cfg   VerifierConfig
	log   *zap.Logger
	now   func() time.Time
}

func NewVerifier(reader ChainReader, cfg VerifierConfig, log *zap.Logger) *Verifier {
	cfg.Recipient = strings.ToLower(strings.TrimSpace(cfg.Recipient))
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Verifier{
		chain: reader,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Verify blocks until txHash has one successful confirmation, then checks the
// recipient and, in strict mode, that at least requiredWei was transferred.
func (v *Verifier) Verify(ctx context.Context, txHash string, requiredWei *big.Int) (model.Payment, error) {
	started := v.now()
	payment, result, err := v.verify(ctx, txHash, requiredWei)
	metrics.RecordPaymentVerification(result, v.now().Sub(started))
	return payment, err
}

func (v *Verifier) verify(ctx context.Context, txHash string, requiredWei *big.Int) (model.Payment, string, error) {
	txHash = strings.ToLower(strings.TrimSpace(txHash))
	if !validate.TxHash(txHash) {
		return model.Payment{}, "invalid", ErrInvalidTxHash
	}
	if v.chain == nil {
		return model.Payment{}, "error", fmt.Errorf("chain reader is nil")
	}

	receipt, err := v.waitForReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ErrConfirmationTimeout) {
			return model.Payment{}, "timeout", err
		}
		return model.Payment{}, "error", err
	}
	if !receipt.Success {
		return model.Payment{}, "failed", ErrTransactionFailed
	}

	tx, err := v.chain.TransactionByHash(ctx, txHash)
	if err != nil {
		return model.Payment{}, "error", fmt.Errorf("get transaction: %w", err)
	}
	if v.cfg.Recipient == "" || tx.To != v.cfg.Recipient {
		return model.Payment{}, "wrong_recipient", ErrWrongRecipient
	}

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	if v.cfg.StrictAmount && requiredWei != nil && value.Cmp(requiredWei) < 0 {
		v.log.Info("payment below price",
			zap.String("tx_hash", txHash),
			zap.String("value_wei", value.String()),
			zap.String("required_wei", requiredWei.String()),
		)
		return model.Payment{}, "insufficient", ErrInsufficientAmount
	}

	return model.Payment{
		TxHash:      txHash,
		From:        tx.From,
		To:          tx.To,
		ValueWei:    value,
		BlockNumber: receipt.BlockNumber,
	}, "confirmed", nil
}

// waitForReceipt polls until a receipt appears. Transient RPC errors are
// retried until the poll budget or the deadline runs out.
func (v *Verifier) waitForReceipt(ctx context.Context, txHash string) (chain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(v.cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for poll := 1; ; poll++ {
		receipt, err := v.chain.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, chain.ErrNotFound):
		default:
			lastErr = err
			v.log.Debug("receipt poll failed", zap.String("tx_hash", txHash), zap.Int("poll", poll), zap.Error(err))
		}

		if poll >= v.cfg.MaxPolls {
			return chain.Receipt{}, v.timeoutError(lastErr)
		}

		select {
		case <-ctx.Done():
			if parent := context.Cause(ctx); parent != nil && !errors.Is(parent, context.DeadlineExceeded) {
				return chain.Receipt{}, parent
			}
			return chain.Receipt{}, v.timeoutError(lastErr)
		case <-ticker.C:
		}
	}
}

func (v *Verifier) timeoutError(lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("%w: last rpc error: %v", ErrConfirmationTimeout, lastErr)
	}
	return ErrConfirmationTimeout
}
