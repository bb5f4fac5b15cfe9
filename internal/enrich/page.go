package enrich

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/model"
)

// Getter retrieves a URL's body. Satisfied by fetcher.HTTPFetcher.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// PageExtractor fetches a company website and pulls contact, social, and
// profile fields out of the raw HTML with regular expressions. Sites in the
// registry corpus are mostly static brochure pages, so pattern extraction
// over the page text is sufficient and avoids a DOM dependency.
type PageExtractor struct {
	client Getter
	log    *zap.Logger
}

// NewPageExtractor builds a PageExtractor over an HTTP getter.
func NewPageExtractor(client Getter) *PageExtractor {
	return &PageExtractor{
		client: client,
		log:    zap.L().With(zap.String("component", "page_extractor")),
	}
}

// FetchPage implements PageFetcher.
func (p *PageExtractor) FetchPage(ctx context.Context, url string) (model.Record, error) {
	body, err := p.client.Get(ctx, url)
	if err != nil {
		return model.Record{}, eris.Wrapf(err, "enrich: get %s", url)
	}
	return ExtractPageFields(string(body)), nil
}

var (
	emailRe     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	sgPhoneRe   = regexp.MustCompile(`(\+65\s?)?[689]\d{7}`)
	linkedinRe  = regexp.MustCompile(`(?i)linkedin\.com/(?:company|in)/[A-Za-z0-9_-]+`)
	facebookRe  = regexp.MustCompile(`(?i)facebook\.com/[A-Za-z0-9_.-]+`)
	instagramRe = regexp.MustCompile(`(?i)instagram\.com/[A-Za-z0-9_.]+`)
	metaDescRe  = regexp.MustCompile(`(?is)<meta\s+name=["']description["']\s+content=["']([^"']+)["']`)
	foundedRe   = regexp.MustCompile(`(?i)(?:founded|established|est\.?|since)\s+(?:in\s+)?(\d{4})`)
	employeesRe = regexp.MustCompile(`(?i)(\d{1,6})\s*\+?\s*(?:employees|staff|people)`)

	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	wordRe   = regexp.MustCompile(`[a-z]{4,}`)
)

const (
	foundingYearMin = 1950
	foundingYearMax = 2024
	employeeMin     = 1
	employeeMax     = 100000
	maxKeywords     = 10
)

// keywordStoplist holds words too generic to describe a business.
var keywordStoplist = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "our": {}, "your": {}, "with": {},
	"this": {}, "that": {}, "have": {}, "from": {}, "they": {}, "will": {},
	"been": {}, "their": {}, "each": {}, "which": {}, "about": {},
	"more": {}, "when": {}, "what": {}, "were": {}, "there": {},
	"other": {}, "home": {}, "page": {}, "contact": {}, "services": {},
	"products": {}, "company": {}, "business": {}, "website": {},
	"email": {}, "phone": {}, "singapore": {}, "copyright": {},
	"rights": {}, "reserved": {}, "privacy": {}, "policy": {},
	"terms": {}, "cookies": {}, "click": {}, "here": {}, "read": {},
	"learn": {}, "welcome": {},
}

// ExtractPageFields pulls a partial record out of raw page HTML.
func ExtractPageFields(html string) model.Record {
	var rec model.Record

	rec.ContactEmail = extractEmail(html)
	rec.ContactPhone = strings.TrimSpace(sgPhoneRe.FindString(html))
	rec.Linkedin = linkedinRe.FindString(html)
	rec.Facebook = firstNonSocialNoise(facebookRe.FindAllString(html, 5))
	rec.Instagram = instagramRe.FindString(html)

	if m := metaDescRe.FindStringSubmatch(html); m != nil {
		rec.ServicesOffered = strings.TrimSpace(m[1])
	}

	if year, ok := extractFoundingYear(html); ok {
		rec.FoundingYear = &year
	}
	if count, ok := extractEmployeeCount(html); ok {
		rec.NumberOfEmployees = &count
	}

	rec.Keywords = extractKeywords(html)
	return rec
}

// extractEmail returns the first address that is not a no-reply mailbox.
func extractEmail(html string) string {
	for _, addr := range emailRe.FindAllString(html, 20) {
		local := strings.ToLower(strings.SplitN(addr, "@", 2)[0])
		if strings.HasPrefix(local, "noreply") ||
			strings.HasPrefix(local, "no-reply") ||
			strings.HasPrefix(local, "donotreply") {
			continue
		}
		return addr
	}
	return ""
}

// firstNonSocialNoise skips share/plugin URLs that match the profile pattern.
func firstNonSocialNoise(candidates []string) string {
	for _, c := range candidates {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "facebook.com/sharer") ||
			strings.Contains(lower, "facebook.com/plugins") {
			continue
		}
		return c
	}
	return ""
}

// extractFoundingYear returns the earliest plausible founding year on the page.
func extractFoundingYear(html string) (int, bool) {
	best := 0
	for _, m := range foundedRe.FindAllStringSubmatch(html, -1) {
		year, err := strconv.Atoi(m[1])
		if err != nil || year < foundingYearMin || year > foundingYearMax {
			continue
		}
		if best == 0 || year < best {
			best = year
		}
	}
	return best, best != 0
}

func extractEmployeeCount(html string) (int, bool) {
	for _, m := range employeesRe.FindAllStringSubmatch(html, -1) {
		count, err := strconv.Atoi(m[1])
		if err != nil || count < employeeMin || count > employeeMax {
			continue
		}
		return count, true
	}
	return 0, false
}

// extractKeywords returns up to maxKeywords frequent content words from the
// visible page text, most frequent first, first appearance breaking ties.
func extractKeywords(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.ToLower(text)

	type entry struct {
		word  string
		count int
		first int
	}
	counts := make(map[string]*entry)
	order := make([]*entry, 0, 64)
	for i, w := range wordRe.FindAllString(text, -1) {
		if _, stop := keywordStoplist[w]; stop {
			continue
		}
		if e, ok := counts[w]; ok {
			e.count++
			continue
		}
		e := &entry{word: w, count: 1, first: i}
		counts[w] = e
		order = append(order, e)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	n := len(order)
	if n > maxKeywords {
		n = maxKeywords
	}
	words := make([]string, n)
	for i := 0; i < n; i++ {
		words[i] = order[i].word
	}
	return strings.Join(words, ", ")
}
