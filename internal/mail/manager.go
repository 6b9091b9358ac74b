package mail

import (
	"fmt"
	"log/slog"
)

// Manager holds the configured providers and routes requests to the
// right account, either by explicit account name or by message id
// shape.
type Manager struct {
	providers map[string]Provider
	logger    *slog.Logger
}

// NewManager creates a manager. Either provider may be nil when the
// corresponding account is not configured.
func NewManager(primary, secondary Provider, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		providers: make(map[string]Provider, 2),
		logger:    logger,
	}
	if primary != nil {
		m.providers[AccountPrimary] = primary
	}
	if secondary != nil {
		m.providers[AccountSecondary] = secondary
	}
	return m
}

// Account returns the named provider. Empty defaults to primary.
func (m *Manager) Account(name string) (Provider, error) {
	if name == "" {
		name = AccountPrimary
	}
	p, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("mail account %q not configured", name)
	}
	return p, nil
}

// AccountNames returns the configured account names.
func (m *Manager) AccountNames() []string {
	names := make([]string, 0, len(m.providers))
	for _, name := range []string{AccountPrimary, AccountSecondary} {
		if _, ok := m.providers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// AccountForID returns the account name implied by a message id's
// shape: all-digit ids are IMAP UIDs from the secondary account,
// anything else is a primary (Gmail) id.
func AccountForID(id string) string {
	if id == "" {
		return AccountPrimary
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return AccountPrimary
		}
	}
	return AccountSecondary
}

// ProviderForID routes an id to the provider that issued it.
func (m *Manager) ProviderForID(id string) (Provider, string, error) {
	name := AccountForID(id)
	p, err := m.Account(name)
	if err != nil {
		return nil, name, err
	}
	return p, name, nil
}
