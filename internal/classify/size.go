package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/registry-etl/internal/model"
)

// Size band boundaries by employee count.
const (
	smallMax  = 50
	mediumMax = 250
)

var revenueAmountRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

var largeIndicators = []string{"multinational", "global", "international", "enterprise", "corporation"}
var smallIndicators = []string{"startup", "boutique", "local", "family", "small"}

// DetermineSize bands a company as Small, Medium, or Large. Employee count
// decides when known; otherwise the revenue string, then description
// wording, and finally Unknown.
func DetermineSize(employees *int, revenue, description string) string {
	if employees != nil {
		switch {
		case *employees < smallMax:
			return model.SizeSmall
		case *employees < mediumMax:
			return model.SizeMedium
		default:
			return model.SizeLarge
		}
	}

	if size := sizeFromRevenue(revenue); size != "" {
		return size
	}

	lower := strings.ToLower(description)
	for _, ind := range largeIndicators {
		if strings.Contains(lower, ind) {
			return model.SizeLarge
		}
	}
	for _, ind := range smallIndicators {
		if strings.Contains(lower, ind) {
			return model.SizeSmall
		}
	}

	return model.SizeUnknown
}

func sizeFromRevenue(revenue string) string {
	lower := strings.ToLower(revenue)
	if strings.Contains(lower, "billion") {
		return model.SizeLarge
	}
	if !strings.Contains(lower, "million") {
		return ""
	}

	m := revenueAmountRe.FindString(lower)
	if m == "" {
		return ""
	}
	amount, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return ""
	}
	switch {
	case amount >= 100:
		return model.SizeLarge
	case amount >= 10:
		return model.SizeMedium
	default:
		return model.SizeSmall
	}
}
