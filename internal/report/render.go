package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/shopspring/decimal"
)

const timestampLayout = "2006-01-02 15:04"

// Report is one month's statistics with both rendered views
type Report struct {
	Stats       Stats          `json:"stats"`
	Text        string         `json:"text"`
	Blocks      []blocks.Block `json:"blocks"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// Build renders stats into both views, stamped with generatedAt
func Build(stats Stats, generatedAt time.Time) *Report {
	return &Report{
		Stats:       stats,
		Text:        RenderMarkdown(stats, generatedAt),
		Blocks:      RenderBlocks(stats, generatedAt),
		GeneratedAt: generatedAt,
	}
}

// Message wraps the report for the chat surface
func (r *Report) Message() blocks.Message {
	return blocks.Message{Text: r.Text, Blocks: r.Blocks}
}

// FormatYen renders an amount as whole yen with thousands separators
func FormatYen(amount decimal.Decimal) string {
	return "¥" + humanize.Comma(amount.RoundBank(0).IntPart())
}

// FormatRate renders a percentage with one decimal
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

func title(s Stats) string {
	return fmt.Sprintf("Monthly report %04d-%02d", s.Year, s.Month)
}

// RenderMarkdown renders the tabular text report
func RenderMarkdown(s Stats, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title(s))
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| New projects | %d |\n", s.NewProjects)
	fmt.Fprintf(&b, "| Won | %d |\n", s.WonProjects)
	fmt.Fprintf(&b, "| Lost | %d |\n", s.LostProjects)
	fmt.Fprintf(&b, "| Win rate | %s |\n", FormatRate(s.WinRate))
	fmt.Fprintf(&b, "| In progress | %d |\n", s.InProgress)
	fmt.Fprintf(&b, "| Total estimated | %s |\n", FormatYen(s.TotalEstimated))
	fmt.Fprintf(&b, "| Won amount | %s |\n", FormatYen(s.WonAmount))
	b.WriteString("\n")

	if len(s.ChannelBreakdown) > 0 {
		b.WriteString("## By channel\n\n")
		b.WriteString("| Channel | Count | Amount |\n")
		b.WriteString("|---------|-------|--------|\n")
		for _, c := range s.ChannelBreakdown {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", c.Channel, c.Count, FormatYen(c.Amount))
		}
		b.WriteString("\n")
	}

	if len(s.StatusBreakdown) > 0 {
		b.WriteString("## By status\n\n")
		b.WriteString("| Status | Count |\n")
		b.WriteString("|--------|-------|\n")
		for _, st := range s.StatusBreakdown {
			fmt.Fprintf(&b, "| %s | %d |\n", st.Status, st.Count)
		}
		b.WriteString("\n")
	}

	if len(s.TopClients) > 0 {
		b.WriteString("## Top clients\n\n")
		b.WriteString("| Client | Projects | Amount |\n")
		b.WriteString("|--------|----------|--------|\n")
		for _, c := range s.TopClients {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", c.Client, c.Count, FormatYen(c.Amount))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated: %s*", generatedAt.Format(timestampLayout))

	return b.String()
}

// RenderBlocks renders the structured chat report
func RenderBlocks(s Stats, generatedAt time.Time) []blocks.Block {
	out := []blocks.Block{
		blocks.Header("📊 " + title(s)),
		blocks.Divider(),
		blocks.Section("*📈 Summary*"),
		blocks.Fields(
			fmt.Sprintf("*New projects*\n%d", s.NewProjects),
			fmt.Sprintf("*Won*\n%d", s.WonProjects),
			fmt.Sprintf("*Lost*\n%d", s.LostProjects),
			fmt.Sprintf("*Win rate*\n%s", FormatRate(s.WinRate)),
		),
		blocks.Fields(
			fmt.Sprintf("*In progress*\n%d", s.InProgress),
			fmt.Sprintf("*Total estimated*\n%s", FormatYen(s.TotalEstimated)),
			fmt.Sprintf("*Won amount*\n%s", FormatYen(s.WonAmount)),
		),
	}

	if len(s.ChannelBreakdown) > 0 {
		lines := make([]string, 0, len(s.ChannelBreakdown))
		for _, c := range s.ChannelBreakdown {
			lines = append(lines, fmt.Sprintf("• %s: %d (%s)", c.Channel, c.Count, FormatYen(c.Amount)))
		}
		out = append(out, blocks.Divider(), blocks.Section("*📡 By channel*\n"+strings.Join(lines, "\n")))
	}

	if len(s.TopClients) > 0 {
		top := s.TopClients
		if len(top) > 3 {
			top = top[:3]
		}
		lines := make([]string, 0, len(top))
		for _, c := range top {
			lines = append(lines, fmt.Sprintf("• %s: %d", c.Client, c.Count))
		}
		out = append(out, blocks.Divider(), blocks.Section("*🏢 Top clients*\n"+strings.Join(lines, "\n")))
	}

	out = append(out,
		blocks.Divider(),
		blocks.Context("Generated: "+generatedAt.Format(timestampLayout)),
	)
	return out
}
