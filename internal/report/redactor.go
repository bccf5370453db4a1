package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	gitleaksconfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksregexp "github.com/zricethezav/gitleaks/v8/regexp"
)

const redacted = "[REDACTED]"

// Redactor masks secrets found by the default gitleaks rule set.
type Redactor struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// NewRedactor builds a detector with the default gitleaks config plus allow.
func NewRedactor(allow *Allowlist) (*Redactor, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("creating gitleaks detector: %w", err)
	}
	if allow != nil && (len(allow.Regexes) > 0 || len(allow.StopWords) > 0) {
		al := &gitleaksconfig.Allowlist{
			Description: "metadex report allowlist",
			StopWords:   allow.StopWords,
		}
		for _, p := range allow.Regexes {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRegex, p, err)
			}
			al.Regexes = append(al.Regexes, (*gitleaksregexp.Regexp)(re))
		}
		d.Config.Allowlists = append(d.Config.Allowlists, al)
	}
	return &Redactor{detector: d}, nil
}

// Redact replaces every detected secret in s. A nil Redactor returns s.
func (r *Redactor) Redact(s string) string {
	if r == nil || s == "" {
		return s
	}
	r.mu.Lock()
	findings := r.detector.DetectString(s)
	r.mu.Unlock()
	if len(findings) == 0 {
		return s
	}

	secrets := make([]string, 0, len(findings))
	for _, f := range findings {
		if f.Secret != "" {
			secrets = append(secrets, f.Secret)
		}
	}
	// Longest first so a secret containing another is replaced whole.
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return s
}
