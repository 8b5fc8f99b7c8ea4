package pricing

import (
	"context"
	"sort"
	"strings"
)

// DomainLister provides the predictor's recognized domain list.
type DomainLister interface {
	Domains(ctx context.Context) ([]string, error)
}

// Normalizer maps a free-text product category to the canonical domain
// name recognized by the predictor.
type Normalizer struct {
	lister DomainLister
}

// NewNormalizer creates a normalizer backed by the given domain source.
func NewNormalizer(lister DomainLister) *Normalizer {
	return &Normalizer{lister: lister}
}

// Normalize resolves raw to the predictor's canonical domain name,
// matching case-insensitively. It returns a DomainNotRecognizedError
// listing the available domains when nothing matches, and propagates
// upstream failures from the domain fetch.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	domains, err := n.lister.Domains(ctx)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(raw)
	for _, domain := range domains {
		if strings.EqualFold(trimmed, domain) {
			return domain, nil
		}
	}

	sort.Strings(domains)
	return "", &DomainNotRecognizedError{Attempted: trimmed, Available: domains}
}
