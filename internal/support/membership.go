package support

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-platform/internal/config"
)

// Membership holds the set of support-staff emails. Entries come from an
// optional membership file and an optional inline env list, comma or newline
// separated, and are matched case-insensitively.
type Membership struct {
	mu     sync.RWMutex
	emails map[string]struct{}
	cfg    config.SupportConfig
	logger *zap.Logger
}

// NewMembership loads the membership set from the configured sources.
func NewMembership(cfg config.SupportConfig, logger *zap.Logger) *Membership {
	m := &Membership{cfg: cfg, logger: logger}
	m.Reload()
	return m
}

// IsMember reports whether the email belongs to support staff.
func (m *Membership) IsMember(email string) bool {
	key := normalize(email)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.emails[key]
	return ok
}

// Emails returns the current membership list.
func (m *Membership) Emails() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.emails))
	for email := range m.emails {
		out = append(out, email)
	}
	return out
}

// Reload re-reads the membership sources, replacing the current set.
func (m *Membership) Reload() {
	emails := make(map[string]struct{})

	if m.cfg.MembershipFile != "" {
		content, err := os.ReadFile(m.cfg.MembershipFile)
		if err != nil {
			if !os.IsNotExist(err) && m.logger != nil {
				m.logger.Warn("read support membership file",
					zap.String("file", m.cfg.MembershipFile), zap.Error(err))
			}
		} else {
			addEmails(emails, string(content))
		}
	}
	addEmails(emails, m.cfg.Emails)

	m.mu.Lock()
	m.emails = emails
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("support membership loaded", zap.Int("count", len(emails)))
	}
}

func addEmails(set map[string]struct{}, raw string) {
	raw = strings.ReplaceAll(raw, "\n", ",")
	for _, part := range strings.Split(raw, ",") {
		email := normalize(part)
		if email == "" {
			continue
		}
		set[email] = struct{}{}
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
