// Package config handles mailvox configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/mailvox/config.yaml, /etc/mailvox/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mailvox", "config.yaml"))
	}

	paths = append(paths, "/etc/mailvox/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all mailvox configuration.
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	LLM        LLMConfig        `yaml:"llm"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Mail       MailConfig       `yaml:"mail"`
	History    HistoryConfig    `yaml:"history"`
	LogLevel   string           `yaml:"log_level"`
}

// TelegramConfig defines the Telegram bot front end.
type TelegramConfig struct {
	// Token is the bot token from @BotFather. Supports environment
	// variable expansion via the config loader (e.g., ${TELEGRAM_TOKEN}).
	Token string `yaml:"token"`

	// AllowedUserIDs restricts the bot to these Telegram user IDs.
	// Empty means any user may talk to the bot (not recommended for a
	// bot with mail-sending capability).
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`

	// RateLimit is the per-sender messages-per-minute cap. 0 = unlimited.
	RateLimit int `yaml:"rate_limit"`

	// PollTimeoutSec is the getUpdates long-poll timeout in seconds.
	// Default: 30.
	PollTimeoutSec int `yaml:"poll_timeout_sec"`
}

// LLMConfig defines the chat-completion provider used for intent
// classification and reply drafting.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API root. Default:
	// https://api.groq.com/openai/v1.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests. Supports environment variable
	// expansion (e.g., ${GROQ_API_KEY}).
	APIKey string `yaml:"api_key"`

	// Model is the chat model name. Default: llama-3.3-70b-versatile.
	Model string `yaml:"model"`
}

// TranscribeConfig defines voice transcription settings.
type TranscribeConfig struct {
	// Enabled turns on voice-note transcription in the Telegram bridge.
	Enabled bool `yaml:"enabled"`

	// Model is the Whisper model name. Default: whisper-large-v3.
	Model string `yaml:"model"`

	// BaseURL defaults to llm.base_url.
	BaseURL string `yaml:"base_url"`

	// APIKey defaults to llm.api_key.
	APIKey string `yaml:"api_key"`
}

// MailConfig holds both mail account configurations. The primary
// account is the Gmail REST provider; the secondary is plain IMAP/SMTP.
type MailConfig struct {
	Primary   GmailConfig   `yaml:"primary"`
	Secondary AccountConfig `yaml:"secondary"`
}

// GmailConfig defines the Gmail API provider (OAuth installed-app flow).
type GmailConfig struct {
	// CredentialsFile is the OAuth client secret JSON downloaded from
	// the Google Cloud console. Default: credentials.json.
	CredentialsFile string `yaml:"credentials_file"`

	// TokenFile caches the OAuth token between runs. Default: token.json.
	TokenFile string `yaml:"token_file"`
}

// AccountConfig describes the IMAP/SMTP account.
type AccountConfig struct {
	// IMAP configures the IMAP connection for reading email.
	IMAP IMAPConfig `yaml:"imap"`

	// SMTP configures the SMTP connection for sending email.
	// Optional — omit to disable sending from this account.
	SMTP SMTPConfig `yaml:"smtp"`

	// From is the From address for outbound email from this account
	// (e.g., "Jordan <user@icloud.com>"). Required when SMTP is
	// configured.
	From string `yaml:"from"`
}

// Configured reports whether the account has the minimum required IMAP
// configuration (host and username).
func (a AccountConfig) Configured() bool {
	return a.IMAP.Host != "" && a.IMAP.Username != ""
}

// SMTPConfigured reports whether this account has SMTP send capability.
func (a AccountConfig) SMTPConfigured() bool {
	return a.SMTP.Host != "" && a.SMTP.Username != ""
}

// IMAPConfig holds IMAP server connection parameters.
type IMAPConfig struct {
	// Host is the IMAP server hostname (e.g., "imap.mail.me.com").
	Host string `yaml:"host"`

	// Port is the IMAP server port. Default: 993 (IMAPS).
	Port int `yaml:"port"`

	// Username is the IMAP login username (typically the email address).
	Username string `yaml:"username"`

	// Password is the IMAP login password. Supports environment variable
	// expansion via the config loader (e.g., ${IMAP_PASSWORD}).
	Password string `yaml:"password"`

	// TLS controls whether to use TLS for the connection. Default: true.
	// Set to false only for port 143 plaintext connections (not recommended).
	TLS bool `yaml:"tls"`
}

// SMTPConfig holds SMTP server connection parameters for outbound email.
type SMTPConfig struct {
	// Host is the SMTP server hostname (e.g., "smtp.mail.me.com").
	Host string `yaml:"host"`

	// Port is the SMTP server port. Default: 587 (submission with STARTTLS).
	Port int `yaml:"port"`

	// Username is the SMTP login username.
	Username string `yaml:"username"`

	// Password is the SMTP login password. Supports environment variable
	// expansion (e.g., ${SMTP_PASSWORD}).
	Password string `yaml:"password"`

	// StartTLS controls whether to upgrade the connection with STARTTLS.
	// Default: true. Set to false for port 465 (implicit TLS).
	StartTLS bool `yaml:"starttls"`
}

// HistoryConfig defines the conversation audit log.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Telegram.PollTimeoutSec == 0 {
		c.Telegram.PollTimeoutSec = 30
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
	if c.Transcribe.Model == "" {
		c.Transcribe.Model = "whisper-large-v3"
	}
	if c.Transcribe.BaseURL == "" {
		c.Transcribe.BaseURL = c.LLM.BaseURL
	}
	if c.Transcribe.APIKey == "" {
		c.Transcribe.APIKey = c.LLM.APIKey
	}
	if c.Mail.Primary.CredentialsFile == "" {
		c.Mail.Primary.CredentialsFile = "credentials.json"
	}
	if c.Mail.Primary.TokenFile == "" {
		c.Mail.Primary.TokenFile = "token.json"
	}

	if c.Mail.Secondary.IMAP.Host != "" {
		if c.Mail.Secondary.IMAP.Port == 0 {
			c.Mail.Secondary.IMAP.Port = 993
		}
		// TLS defaults to true unless the port is 143 (plaintext
		// convention).
		if !c.Mail.Secondary.IMAP.TLS && c.Mail.Secondary.IMAP.Port != 143 {
			c.Mail.Secondary.IMAP.TLS = true
		}
	}
	if c.Mail.Secondary.SMTP.Host != "" {
		if c.Mail.Secondary.SMTP.Port == 0 {
			c.Mail.Secondary.SMTP.Port = 587
		}
		if !c.Mail.Secondary.SMTP.StartTLS && c.Mail.Secondary.SMTP.Port != 465 {
			c.Mail.Secondary.SMTP.StartTLS = true
		}
	}
}

// Validate checks that the configuration is internally consistent.
// Returns an error describing the first problem found.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}

	if s := c.Mail.Secondary; s.IMAP.Host != "" {
		if s.IMAP.Username == "" {
			return fmt.Errorf("mail.secondary.imap.username is required")
		}
		if s.IMAP.Port < 1 || s.IMAP.Port > 65535 {
			return fmt.Errorf("mail.secondary.imap.port %d out of range (1-65535)", s.IMAP.Port)
		}
		if s.SMTP.Host != "" {
			if s.SMTP.Username == "" {
				return fmt.Errorf("mail.secondary.smtp.username is required when smtp.host is set")
			}
			if s.SMTP.Port < 1 || s.SMTP.Port > 65535 {
				return fmt.Errorf("mail.secondary.smtp.port %d out of range (1-65535)", s.SMTP.Port)
			}
			if s.From == "" {
				return fmt.Errorf("mail.secondary.from is required when smtp is configured")
			}
		}
	}

	return nil
}
