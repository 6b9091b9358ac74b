// Package imapmail implements the secondary mail provider over plain
// IMAP and SMTP. Message ids are IMAP UIDs rendered as decimal strings.
package imapmail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mailvox/mailvox/internal/config"
)

// Provider is an IMAP/SMTP-backed mail.Provider. The IMAP connection is
// established lazily, reconnected when stale, and serialized behind a
// mutex; all public methods are goroutine-safe.
type Provider struct {
	cfg    config.AccountConfig
	logger *slog.Logger

	mu     sync.Mutex
	client *imapclient.Client
}

// NewProvider creates the provider for the given account. No connection
// is made until the first operation.
func NewProvider(cfg config.AccountConfig, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		cfg:    cfg,
		logger: logger,
	}
}

// connectLocked dials and authenticates. Caller must hold p.mu.
func (p *Provider) connectLocked(ctx context.Context) error {
	// Close any existing stale connection.
	if p.client != nil {
		_ = p.client.Close()
		p.client = nil
	}

	imapCfg := p.cfg.IMAP
	addr := net.JoinHostPort(imapCfg.Host, fmt.Sprintf("%d", imapCfg.Port))

	var opts imapclient.Options
	if imapCfg.TLS {
		opts.TLSConfig = &tls.Config{
			ServerName: imapCfg.Host,
		}
	}

	p.logger.Debug("connecting to IMAP server", "host", imapCfg.Host, "port", imapCfg.Port, "tls", imapCfg.TLS)

	var client *imapclient.Client
	var err error
	if imapCfg.TLS {
		client, err = imapclient.DialTLS(addr, &opts)
	} else {
		client, err = imapclient.DialInsecure(addr, &opts)
	}
	if err != nil {
		return fmt.Errorf("dial IMAP %s: %w", addr, err)
	}

	if err := client.Login(imapCfg.Username, imapCfg.Password).Wait(); err != nil {
		_ = client.Close()
		return fmt.Errorf("login as %s: %w", imapCfg.Username, err)
	}

	p.client = client
	p.logger.Info("IMAP connected", "host", imapCfg.Host, "user", imapCfg.Username)
	return nil
}

// ensureConnected checks the connection with a NOOP and reconnects if
// needed. Caller must hold p.mu.
func (p *Provider) ensureConnected(ctx context.Context) error {
	if p.client != nil {
		if err := p.client.Noop().Wait(); err == nil {
			return nil
		}
		p.logger.Debug("IMAP connection stale, reconnecting", "host", p.cfg.IMAP.Host)
	}
	return p.connectLocked(ctx)
}

// Ping checks that the IMAP connection is alive.
func (p *Provider) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureConnected(ctx)
}

// Close logs out and closes the IMAP connection.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}

	err := p.client.Close()
	p.client = nil
	return err
}

// selectInbox selects the INBOX mailbox. Caller must hold p.mu.
func (p *Provider) selectInbox() (*imap.SelectData, error) {
	data, err := p.client.Select("INBOX", nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("select INBOX: %w", err)
	}
	return data, nil
}
