package llm

import "strings"

const tokensPerMillion = 1_000_000.0

// tokenPrice is the USD cost of one million tokens.
type tokenPrice struct {
	prompt     float64
	completion float64
}

// priceRule applies when the lowercased model name contains every fragment.
type priceRule struct {
	fragments []string
	price     tokenPrice
}

// Approximate list prices. The first matching rule wins, the last rule of
// each provider is its fallback.
var providerPrices = map[ProviderName][]priceRule{
	ProviderOpenAI: {
		{fragments: []string{modelPrefixGPT5, modelPrefixNano}, price: tokenPrice{0.05, 0.40}},
		{fragments: []string{modelPrefixGPT5, modelPrefixMini}, price: tokenPrice{0.25, 2.00}},
		{fragments: []string{modelPrefixGPT5}, price: tokenPrice{2.50, 10.00}},
		{fragments: []string{"gpt-4o-mini"}, price: tokenPrice{0.15, 0.60}},
		{fragments: []string{modelPrefixGPT4}, price: tokenPrice{2.50, 10.00}},
		{price: tokenPrice{0.15, 0.60}},
	},
	ProviderAnthropic: {
		{fragments: []string{"sonnet"}, price: tokenPrice{3.00, 15.00}},
		{fragments: []string{"opus"}, price: tokenPrice{3.00, 15.00}},
		{price: tokenPrice{1.00, 5.00}},
	},
	ProviderGoogle: {
		{fragments: []string{"pro"}, price: tokenPrice{3.50, 10.50}},
		{price: tokenPrice{0.10, 0.40}},
	},
	ProviderOpenRouter: {
		{price: tokenPrice{1.00, 2.00}},
	},
	ProviderMock: {
		{price: tokenPrice{}},
	},
}

var unknownProviderPrice = tokenPrice{0.15, 0.60}

// estimateCost returns the approximate USD cost of one request.
func estimateCost(provider, model string, promptTokens, completionTokens int) float64 {
	p := priceFor(ProviderName(provider), model)

	return (float64(promptTokens)*p.prompt + float64(completionTokens)*p.completion) / tokensPerMillion
}

func priceFor(provider ProviderName, model string) tokenPrice {
	rules, ok := providerPrices[provider]
	if !ok {
		return unknownProviderPrice
	}

	model = strings.ToLower(model)

	for _, rule := range rules {
		if containsAll(model, rule.fragments) {
			return rule.price
		}
	}

	return unknownProviderPrice
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}

	return true
}
