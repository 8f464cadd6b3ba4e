package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/sha3"
)

// LocalRecorder stands in for the ledger gateway in development. Tx hashes are the
// Keccak-256 of the entry plus a process-local nonce, so repeated entries still get
// distinct hashes.
type LocalRecorder struct {
	Account string
	nonce   atomic.Uint64
	now     func() time.Time
}

func NewLocalRecorder(account string) *LocalRecorder {
	return &LocalRecorder{Account: account, now: func() time.Time { return time.Now().UTC() }}
}

func (l *LocalRecorder) RecordDonation(ctx context.Context, entry DonationEntry) (*Receipt, error) {
	return l.record(ctx, "donation", entry)
}

func (l *LocalRecorder) ReleasePayment(ctx context.Context, entry PayoutEntry) (*Receipt, error) {
	return l.record(ctx, "payout", entry)
}

func (l *LocalRecorder) record(ctx context.Context, kind string, entry interface{}) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	n := l.nonce.Add(1)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(kind))
	h.Write(payload)
	h.Write([]byte(strconv.FormatUint(n, 10)))
	hash := "0x" + hex.EncodeToString(h.Sum(nil))

	now := time.Now().UTC()
	if l.now != nil {
		now = l.now()
	}
	log.Debug().Str("kind", kind).Str("tx_hash", hash).Msg("ledger: recorded locally")
	return &Receipt{TxHash: hash, Account: l.Account, RecordedAt: now}, nil
}
