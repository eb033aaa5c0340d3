package mintcontroller

import (
	"errors"
	"slices"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Ledger models the host guarantees the program depends on: transactions
// touching the same accounts execute serially, and on error every account
// mutation is rolled back, never a subset. It backs the processor tests and
// local simulation; the production program runs under the real ledger.
type Ledger struct {
	processor *Processor

	mu       sync.Mutex
	accounts map[solana.PublicKey]*Account
}

func NewLedger(processor *Processor) (*Ledger, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	return &Ledger{
		processor: processor,
		accounts:  make(map[solana.PublicKey]*Account),
	}, nil
}

// Transaction declares the accounts an instruction touches, in positional
// order, along with which of them signed.
type Transaction struct {
	Accounts []solana.PublicKey
	Signers  []solana.PublicKey
	Data     []byte
}

// SetAccount seeds or replaces an account's data.
func (l *Ledger) SetAccount(key solana.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[key] = &Account{Key: key, Data: slices.Clone(data)}
}

// AccountData returns a copy of an account's data. A nil result means the
// account has never been written.
func (l *Ledger) AccountData(key solana.PublicKey) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[key]
	if !ok {
		return nil
	}
	return slices.Clone(acc.Data)
}

// Execute runs a transaction atomically. Declared but unknown accounts are
// materialized empty, which is how wallet-state accounts come to exist
// lazily on first mint. On error, all account data is restored.
func (l *Ledger) Execute(tx Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	accs := make([]*Account, len(tx.Accounts))
	snapshots := make([][]byte, len(tx.Accounts))
	for i, key := range tx.Accounts {
		acc, ok := l.accounts[key]
		if !ok {
			acc = &Account{Key: key}
			l.accounts[key] = acc
		}
		acc.IsSigner = slices.Contains(tx.Signers, key)
		snapshots[i] = slices.Clone(acc.Data)
		accs[i] = acc
	}

	if err := l.processor.Process(accs, tx.Data); err != nil {
		for i, acc := range accs {
			acc.Data = snapshots[i]
		}
		return err
	}
	return nil
}
