// Package credits tracks per-user generation credits.
package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ActionGeneration is recorded for credits spent on a generation.
const ActionGeneration = "generation"

var (
	// ErrInsufficientCredits is matched by *InsufficientCreditsError.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidAmount rejects zero or negative deductions.
	ErrInvalidAmount = errors.New("credit amount must be positive")
)

// InsufficientCreditsError reports a balance below the required cost.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("Insufficient credits. Required: %d, Available: %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// Details is stored as action_details on every transaction.
type Details struct {
	ContentType string `json:"content_type,omitempty"`
	Subject     string `json:"subject,omitempty"`
	GradeLevel  string `json:"grade_level,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
}

// Transaction is one recorded deduction.
type Transaction struct {
	UserID           string
	CreditsUsed      int
	CreditsRemaining int
	ActionType       string
	Details          Details
	CreatedAt        time.Time
}

// Ledger reads and spends user credits. Users without a profile start
// with the ledger's starting balance.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int, error)
	// Deduct subtracts amount and returns the remaining balance.
	Deduct(ctx context.Context, userID string, amount int, details Details) (int, error)
}

// Check returns an *InsufficientCreditsError when userID cannot afford
// required credits.
func Check(ctx context.Context, l Ledger, userID string, required int) (int, error) {
	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("reading balance: %w", err)
	}
	if balance < required {
		return balance, &InsufficientCreditsError{Required: required, Available: balance}
	}
	return balance, nil
}

// MemoryLedger is an in-memory Ledger for development and tests.
type MemoryLedger struct {
	mu           sync.Mutex
	start        int
	balances     map[string]int
	transactions []Transaction
}

// NewMemoryLedger creates a ledger where new users get start credits.
func NewMemoryLedger(start int) *MemoryLedger {
	return &MemoryLedger{
		start:    start,
		balances: make(map[string]int),
	}
}

// SetBalance overrides a user's balance.
func (l *MemoryLedger) SetBalance(userID string, credits int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = credits
}

func (l *MemoryLedger) Balance(_ context.Context, userID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(userID), nil
}

func (l *MemoryLedger) balanceLocked(userID string) int {
	if b, ok := l.balances[userID]; ok {
		return b
	}
	return l.start
}

func (l *MemoryLedger) Deduct(_ context.Context, userID string, amount int, details Details) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(userID)
	if balance < amount {
		return balance, &InsufficientCreditsError{Required: amount, Available: balance}
	}
	remaining := balance - amount
	l.balances[userID] = remaining
	l.transactions = append(l.transactions, Transaction{
		UserID:           userID,
		CreditsUsed:      amount,
		CreditsRemaining: remaining,
		ActionType:       ActionGeneration,
		Details:          details,
		CreatedAt:        time.Now(),
	})
	return remaining, nil
}

// Transactions returns a copy of all recorded deductions.
func (l *MemoryLedger) Transactions() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Transaction{}, l.transactions...)
}
