package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/match"
)

// Header probes a URL without downloading its body. Satisfied by
// fetcher.HTTPFetcher.
type Header interface {
	Head(ctx context.Context, url string) error
}

// candidateTLDs are tried in order when guessing a Singapore company's domain.
var candidateTLDs = []string{".com.sg", ".sg", ".com"}

// DomainGuesser resolves websites by deriving a domain slug from the company
// name and probing the usual Singapore TLDs. The first domain that answers a
// HEAD request wins. Returning an empty URL with a nil error means no guess
// could be verified.
type DomainGuesser struct {
	client Header
	log    *zap.Logger
}

// NewDomainGuesser builds a DomainGuesser over an HTTP prober.
func NewDomainGuesser(client Header) *DomainGuesser {
	return &DomainGuesser{
		client: client,
		log:    zap.L().With(zap.String("component", "domain_guesser")),
	}
}

// ResolveWebsite implements WebsiteResolver.
func (d *DomainGuesser) ResolveWebsite(ctx context.Context, companyName string) (string, error) {
	slug := domainSlug(companyName)
	if slug == "" {
		return "", nil
	}

	for _, tld := range candidateTLDs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		url := "https://" + slug + tld
		if err := d.client.Head(ctx, url); err != nil {
			d.log.Debug("candidate domain rejected",
				zap.String("url", url),
				zap.Error(err))
			continue
		}
		return url, nil
	}
	return "", nil
}

// domainSlug turns "Acme Widgets Pte Ltd" into "acmewidgets".
func domainSlug(companyName string) string {
	return strings.ReplaceAll(match.NormalizeName(companyName), " ", "")
}
