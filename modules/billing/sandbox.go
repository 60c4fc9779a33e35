package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/modkit"
)

func init() {
	modkit.MustRegisterPlugin(PluginPrefix+"sandbox", modkit.New[Sandbox]())
}

// SandboxConfig configures a sandbox provider instance.
type SandboxConfig struct {
	// DeclineAbove declines charges larger than this amount. Zero accepts everything.
	DeclineAbove int64 `yaml:"declineAbove" json:"declineAbove" toml:"declineAbove"`
}

// Sandbox is an in-memory provider that records every accepted charge.
type Sandbox struct {
	modkit.Base

	cfg SandboxConfig

	mu       sync.Mutex
	receipts []Receipt
}

func (s *Sandbox) OnInit(context.Context) error {
	if err := s.Config().Decode(&s.cfg); err != nil {
		return fmt.Errorf("sandbox config: %w", err)
	}
	return nil
}

func (s *Sandbox) Kind() string { return "sandbox" }

// Charge accepts req unless it exceeds DeclineAbove.
func (s *Sandbox) Charge(_ context.Context, req ChargeRequest) (Receipt, error) {
	if s.cfg.DeclineAbove > 0 && req.Amount > s.cfg.DeclineAbove {
		return Receipt{}, fmt.Errorf("%w: %d exceeds %d", ErrDeclined, req.Amount, s.cfg.DeclineAbove)
	}

	r := Receipt{
		ID:        uuid.NewString(),
		Provider:  s.Namespace(),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Reference: req.Reference,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.receipts = append(s.receipts, r)
	s.mu.Unlock()

	if s.Debug() {
		s.Log().Debug("charge accepted", "id", r.ID, "amount", r.Amount, "currency", r.Currency)
	}
	return r, nil
}

// Receipts returns the accepted charges.
func (s *Sandbox) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Receipt(nil), s.receipts...)
}
