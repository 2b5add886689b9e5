// Package advice renders engine output as client-facing prose.
package advice

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/bobmcallan/advisor/internal/models"
)

// TemplateRenderer renders every recommendation deterministically as
// markdown. It never fails and never drops an item.
type TemplateRenderer struct{}

// Name returns "template".
func (TemplateRenderer) Name() string { return models.RendererTemplate }

// Render implements interfaces.AdviceRenderer.
func (t TemplateRenderer) Render(_ context.Context, p *models.Portfolio, out *models.EngineOutput) (*models.Advice, error) {
	if out == nil {
		return nil, fmt.Errorf("%w: engine output is required", models.ErrInvalidInput)
	}
	return &models.Advice{
		ClientID:     out.ClientID,
		AdviceText:   RenderText(p, out),
		Renderer:     t.Name(),
		EngineOutput: out,
	}, nil
}

// RenderText builds the markdown body: a summary, one bullet per
// recommendation with its evidence, then notes for any data quality issues.
func RenderText(p *models.Portfolio, out *models.EngineOutput) string {
	var sb strings.Builder

	sb.WriteString("**Summary**\n")
	if p != nil && !models.IsMissingLabel(p.ClientName) {
		fmt.Fprintf(&sb, "Client: %s (%s)\n", p.ClientName, out.ClientID)
	}
	fmt.Fprintf(&sb, "Client's risk persona: %s (confidence level: %.2f)\n", out.RiskPersona, out.PersonaConfidence)
	if out.Meta.DataTimestamp != "" {
		fmt.Fprintf(&sb, "Data as of: %s\n", out.Meta.DataTimestamp)
	}
	if out.Meta.IsStale {
		fmt.Fprintf(&sb, "Market data is older than %d minutes.\n", out.Meta.StaleAfterMinutes)
	}
	sb.WriteString("\n**Recommendations**\n")

	if len(out.Recommendations) == 0 {
		sb.WriteString("- No recommendations available.\n")
	}
	var issues []string
	for _, r := range out.Recommendations {
		suffix := ""
		if r.Stale {
			suffix = " (data may be outdated)"
		}
		fmt.Fprintf(&sb, "- **%s**: %s%s\n", Title(r.Type), strings.TrimSpace(r.Message), suffix)
		if ev := formatEvidence(r.Evidence); ev != "" {
			fmt.Fprintf(&sb, "  - Evidence: %s\n", ev)
		}
		if r.Type == models.RecommendationDataQuality {
			issues = append(issues, issueList(r.Evidence)...)
		}
	}

	if len(issues) > 0 {
		sb.WriteString("\n**Data Notes**\n")
		for _, issue := range issues {
			fmt.Fprintf(&sb, "- %s\n", issue)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Title turns a recommendation type into a heading: "top_mover_up" becomes
// "Top Mover Up".
func Title(t models.RecommendationType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// formatEvidence prints evidence as "key: value" pairs in key order.
func formatEvidence(ev models.Evidence) string {
	if len(ev) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ev))
	for k := range ev {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+formatValue(ev[k]))
	}
	return strings.Join(parts, ", ")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "n/a"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []string:
		return strings.Join(t, "; ")
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprint(v)
}

func issueList(ev models.Evidence) []string {
	switch t := ev["issues"].(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, formatValue(item))
		}
		return out
	}
	return nil
}
