package upstream

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var credentialParam = regexp.MustCompile(`(?i)((?:servicekey|api_?key|key|token|access_token)=)[^&\s"]+`)

// Masker scrubs credentials from URLs and messages before they are logged.
type Masker struct {
	secrets []string
}

// NewMasker builds a masker for the given literal secrets. Empty values are ignored.
func NewMasker(secrets ...string) *Masker {
	m := &Masker{}
	for _, s := range secrets {
		if strings.TrimSpace(s) == "" {
			continue
		}
		m.secrets = append(m.secrets, s)
		if escaped := url.QueryEscape(s); escaped != s {
			m.secrets = append(m.secrets, escaped)
		}
		if escaped := url.PathEscape(s); escaped != s {
			m.secrets = append(m.secrets, escaped)
		}
	}
	return m
}

// String masks literal secrets and credential-looking query parameters.
func (m *Masker) String(s string) string {
	if m != nil {
		for _, secret := range m.secrets {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}
	return credentialParam.ReplaceAllString(s, "${1}"+redacted)
}

// URL renders target with secrets removed.
func (m *Masker) URL(target string) string {
	return m.String(target)
}
