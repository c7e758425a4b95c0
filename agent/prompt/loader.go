package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/supervisor.txt
	supervisorRaw string

	//go:embed template/policy.txt
	policyRaw string

	//go:embed template/inventory.txt
	inventoryRaw string

	//go:embed template/sales.txt
	salesRaw string

	//go:embed template/web_search.txt
	webSearchRaw string
)

// PromptSet holds the fixed role instructions. None of these are ever
// shown to the end user.
type PromptSet struct {
	Supervisor string
	Policy     string
	Inventory  string
	Sales      string
	WebSearch  string
}

// LoadPromptSet returns trimmed prompt strings. Safe to call concurrently;
// the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Supervisor: strings.TrimSpace(supervisorRaw),
		Policy:     strings.TrimSpace(policyRaw),
		Inventory:  strings.TrimSpace(inventoryRaw),
		Sales:      strings.TrimSpace(salesRaw),
		WebSearch:  strings.TrimSpace(webSearchRaw),
	}
}
