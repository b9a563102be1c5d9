package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/pattadon/shoppilot/agent/contract"
)

var (
	//go:embed template/supervisor.txt
	supervisorRaw string

	//go:embed template/safety.txt
	safetyRaw string

	//go:embed template/intent.txt
	intentRaw string

	//go:embed template/entities.txt
	entitiesRaw string

	//go:embed template/stitcher.txt
	stitcherRaw string

	//go:embed template/clarify.txt
	clarifyRaw string

	//go:embed template/small_talk.txt
	smallTalkRaw string

	//go:embed template/out_of_domain.txt
	outOfDomainRaw string

	//go:embed template/text2sql.txt
	text2SQLRaw string
)

// PromptSet holds the system prompts for every reasoning call.
type PromptSet struct {
	Supervisor  string
	Safety      string
	Intent      string
	Entities    string
	Stitcher    string
	Clarify     string
	SmallTalk   string
	OutOfDomain string
	Text2SQL    string
}

// Validate reports the first empty prompt in the set.
func (p PromptSet) Validate() error {
	prompts := map[string]string{
		"supervisor":    p.Supervisor,
		"safety":        p.Safety,
		"intent":        p.Intent,
		"entities":      p.Entities,
		"stitcher":      p.Stitcher,
		"clarify":       p.Clarify,
		"small_talk":    p.SmallTalk,
		"out_of_domain": p.OutOfDomain,
		"text2sql":      p.Text2SQL,
	}
	for name, prompt := range prompts {
		if prompt == "" {
			return fmt.Errorf("%s: %w", name, contractx.ErrPromptMissing)
		}
	}
	return nil
}

// LoadPromptSet returns the embedded system prompts, trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Supervisor:  strings.TrimSpace(supervisorRaw),
		Safety:      strings.TrimSpace(safetyRaw),
		Intent:      strings.TrimSpace(intentRaw),
		Entities:    strings.TrimSpace(entitiesRaw),
		Stitcher:    strings.TrimSpace(stitcherRaw),
		Clarify:     strings.TrimSpace(clarifyRaw),
		SmallTalk:   strings.TrimSpace(smallTalkRaw),
		OutOfDomain: strings.TrimSpace(outOfDomainRaw),
		Text2SQL:    strings.TrimSpace(text2SQLRaw),
	}
}
