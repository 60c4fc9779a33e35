// Package billing resolves one payment provider submodule per configured
// instance and charges through them:
//
//	billing:
//	  currency: eur
//	  providers:
//	    stripe: {provider: sandbox}
//	    paypal: {provider: sandbox, declineAbove: 10000}
//
// Provider kinds are plugins registered under "billing.<kind>"; instances whose
// kind has no plugin are skipped with a warning. Each instance is the
// submodule "providers.<name>" and logs under "<billing ns>.providers.<name>".
//
// An "idempotency" section adds a cache submodule; charges carrying a
// reference are then answered from it when the same provider and reference
// were charged before. A "ledger" section adds a database submodule that
// records every accepted charge.
package billing

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/modules/cache"
	"github.com/GoCodeAlone/modkit/modules/database"
)

// ModuleName is the conventional submodule name of the billing module.
const ModuleName = "billing"

// PluginPrefix namespaces provider plugins in the global plugin registry.
const PluginPrefix = "billing."

const providerPrefix = "providers."

// IdempotencyModule is the submodule name of the optional receipt cache.
const IdempotencyModule = "idempotency"

// Event type constants for billing events.
const (
	EventTypeChargeSucceeded = "com.modkit.billing.charge.succeeded"
	EventTypeChargeFailed    = "com.modkit.billing.charge.failed"
)

// ChargeRequest is a request to move money through a provider.
type ChargeRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Receipt describes a successful charge.
type Receipt struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Provider is implemented by provider plugins.
type Provider interface {
	modkit.Module
	Kind() string
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// Config defines the billing module's own options.
type Config struct {
	// Currency is used when a request does not name one. Defaults to usd.
	Currency string `yaml:"currency" json:"currency" toml:"currency"`

	// Default is the provider used when a request does not name one.
	Default string `yaml:"default" json:"default" toml:"default"`
}

// Module owns the configured provider instances.
type Module struct {
	modkit.Base

	cfg       Config
	providers map[string]Provider
	receipts  *cache.Module
	ledger    *database.Module

	// charges sharing an idempotency key share one provider call
	inflight singleflight.Group
}

// New returns the billing factory.
func New() modkit.Factory {
	return modkit.New[Module]()
}

// RegisterProvider registers a provider kind.
func RegisterProvider(kind string, factory modkit.Factory) error {
	return modkit.RegisterPlugin(PluginPrefix+kind, factory)
}

// Submodules declares one submodule per configured provider instance.
func (m *Module) Submodules() map[string]modkit.Factory {
	raw, _ := m.Config().Lookup("providers")
	sections, _ := raw.(map[string]any)
	registered := modkit.PluginNames()

	subs := make(map[string]modkit.Factory, len(sections))
	for _, name := range slices.Sorted(maps.Keys(sections)) {
		section, _ := sections[name].(map[string]any)
		kind, _ := section["provider"].(string)
		if kind == "" {
			m.Log().Warn("billing provider has no kind, skipping", "provider", name)
			continue
		}
		if !slices.Contains(registered, PluginPrefix+kind) {
			m.Log().Warn("unknown billing provider kind, skipping", "provider", name, "kind", kind)
			continue
		}
		subs[providerPrefix+name] = modkit.Plugin(PluginPrefix + kind)
	}
	if _, ok := m.Config().Lookup(IdempotencyModule); ok {
		subs[IdempotencyModule] = cache.New()
	}
	if _, ok := m.Config().Lookup(LedgerModule); ok {
		subs[LedgerModule] = database.New()
	}
	return subs
}

// OnInit resolves every provider instance.
func (m *Module) OnInit(ctx context.Context) error {
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("billing config: %w", err)
	}
	if m.cfg.Currency == "" {
		m.cfg.Currency = "usd"
	}

	mods, err := m.Modules(ctx, []string{providerPrefix + "*"})
	if err != nil {
		return err
	}

	m.providers = make(map[string]Provider, len(mods))
	for name, mod := range mods {
		p, ok := mod.(Provider)
		if !ok {
			return fmt.Errorf("%w: %s is %T", ErrNotAProvider, name, mod)
		}
		m.providers[strings.TrimPrefix(name, providerPrefix)] = p
	}
	if m.HasModule(IdempotencyModule) {
		m.receipts, err = modkit.ModuleAs[*cache.Module](ctx, m, IdempotencyModule)
		if err != nil {
			return err
		}
	}
	if m.HasModule(LedgerModule) {
		m.ledger, err = modkit.ModuleAs[*database.Module](ctx, m, LedgerModule)
		if err != nil {
			return err
		}
		if _, err := m.ledger.Migrate(ctx, ledgerMigrations...); err != nil {
			return err
		}
	}
	if m.cfg.Default == "" && len(m.providers) == 1 {
		for name := range m.providers {
			m.cfg.Default = name
		}
	}

	m.Log().Info("billing providers ready", "providers", m.Providers(), "default", m.cfg.Default)
	return nil
}

// Providers returns the configured provider names in ascending order.
func (m *Module) Providers() []string {
	return slices.Sorted(maps.Keys(m.providers))
}

// Provider returns the provider instance called name.
func (m *Module) Provider(name string) (Provider, error) {
	if name == "" {
		name = m.cfg.Default
	}
	p, ok := m.providers[name]
	if !ok {
		return nil, modkit.NewError(modkit.CodeNotFound, "billing provider not configured", map[string]any{"provider": name}, nil)
	}
	return p, nil
}

// Charge charges through the named provider, or the default one.
func (m *Module) Charge(ctx context.Context, provider string, req ChargeRequest) (Receipt, error) {
	if req.Amount <= 0 {
		return Receipt{}, fmt.Errorf("%w: %d", ErrInvalidAmount, req.Amount)
	}
	if req.Currency == "" {
		req.Currency = m.cfg.Currency
	}

	if provider == "" {
		provider = m.cfg.Default
	}
	p, err := m.Provider(provider)
	if err != nil {
		return Receipt{}, err
	}

	if m.receipts == nil || req.Reference == "" {
		return m.charge(ctx, provider, p, req, "")
	}

	key := provider + ":" + req.Reference
	v, err, _ := m.inflight.Do(key, func() (any, error) {
		var prior Receipt
		found, err := m.receipts.Load(ctx, key, &prior)
		if err != nil {
			m.Log().Warn("idempotency lookup failed", "key", key, "error", err)
		} else if found {
			return prior, nil
		}
		return m.charge(ctx, provider, p, req, key)
	})
	if err != nil {
		return Receipt{}, err
	}
	return v.(Receipt), nil
}

// charge calls the provider, records the receipt and remembers it under key.
func (m *Module) charge(ctx context.Context, provider string, p Provider, req ChargeRequest, key string) (Receipt, error) {
	receipt, err := p.Charge(ctx, req)
	source := "modkit://" + m.Namespace()
	if err != nil {
		m.Log().Warn("charge failed", "provider", provider, "amount", req.Amount, "error", err)
		m.Emit(EventTypeChargeFailed, modkit.NewCloudEvent(EventTypeChargeFailed, source, map[string]any{
			"provider": provider,
			"amount":   req.Amount,
			"error":    err.Error(),
		}, nil))
		return Receipt{}, err
	}

	if m.ledger != nil {
		if err := m.record(ctx, receipt); err != nil {
			m.Log().Error("charge accepted but not recorded", "id", receipt.ID, "error", err)
		}
	}
	if key != "" {
		if err := m.receipts.Store(ctx, key, receipt, 0); err != nil {
			m.Log().Warn("failed to remember receipt", "key", key, "error", err)
		}
	}
	m.Emit(EventTypeChargeSucceeded, modkit.NewCloudEvent(EventTypeChargeSucceeded, source, receipt, nil))
	return receipt, nil
}
