package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/model"
)

// minDescriptionLen is the shortest description worth sending to the LLM.
const minDescriptionLen = 10

// Classifier labels records with industry, keywords, and size. The LLM path
// is optional; every LLM failure falls back to the rule classifier, so
// classification never fails a record.
type Classifier struct {
	llm   Completer // nil disables the LLM path
	rules *RuleClassifier
	log   *zap.Logger
}

// NewClassifier builds a Classifier. Pass a nil Completer for rules-only mode.
func NewClassifier(llm Completer, rules *RuleClassifier) *Classifier {
	return &Classifier{
		llm:   llm,
		rules: rules,
		log:   zap.L().With(zap.String("component", "classifier")),
	}
}

// ClassifyIndustry labels a company from its name and description.
func (c *Classifier) ClassifyIndustry(ctx context.Context, companyName, description string) string {
	full := strings.TrimSpace(companyName + " " + description)

	if c.llm != nil && len(full) > minDescriptionLen {
		if industry, ok := c.classifyWithLLM(ctx, full); ok {
			return industry
		}
	}
	return c.rules.Classify(full)
}

func (c *Classifier) classifyWithLLM(ctx context.Context, description string) (string, bool) {
	if len(description) > 200 {
		description = description[:200]
	}
	prompt := fmt.Sprintf(
		"Classify this company into exactly ONE of these industries:\n%s\n\nCompany: %s\n\nThe industry is:",
		strings.Join(c.rules.Industries(), ", "), description)

	resp, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		c.log.Warn("llm classification failed, using rules", zap.Error(err))
		return "", false
	}

	lower := strings.ToLower(resp)
	for _, industry := range c.rules.Industries() {
		if strings.Contains(lower, strings.ToLower(industry)) {
			return industry, true
		}
	}
	return "", false
}

// Enhance fills industry, keywords, and company size on a record when they
// are missing. Present values are never replaced.
func (c *Classifier) Enhance(ctx context.Context, rec model.Record) model.Record {
	out := rec.Clone()
	description := rec.Description()

	if out.Industry == "" && description != "" {
		out.Industry = c.ClassifyIndustry(ctx, out.CompanyName, description)
	}
	if out.Keywords == "" && description != "" {
		out.Keywords = ExtractKeywords(description, MaxKeywords)
	}
	if out.CompanySize == "" {
		out.CompanySize = DetermineSize(out.NumberOfEmployees, out.Revenue, description)
	}
	return out
}

// EnhanceAll runs Enhance over a slice, preserving order.
func (c *Classifier) EnhanceAll(ctx context.Context, records []model.Record) []model.Record {
	out := make([]model.Record, len(records))
	for i, rec := range records {
		out[i] = c.Enhance(ctx, rec)
	}
	return out
}
