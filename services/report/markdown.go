package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// MarkdownRenderer writes the report as a single markdown document
// with one table per section.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Name() string { return "markdown" }
func (MarkdownRenderer) Ext() string  { return "md" }

func (MarkdownRenderer) Render(ctx context.Context, model Model) ([]byte, error) {
	var out strings.Builder

	fmt.Fprintf(&out, "# %s Club Report\n\n", model.ClubName)
	fmt.Fprintf(&out, "Generated %s\n\n", model.GeneratedAt.Format("January 2, 2006 3:04 PM"))

	if len(model.Warnings) > 0 {
		out.WriteString("## Warnings\n\n")
		for _, warning := range model.Warnings {
			fmt.Fprintf(&out, "- %s\n", warning)
		}
		out.WriteString("\n")
	}

	out.WriteString("## Club Overview\n\n")
	overview := table.NewWriter()
	overview.AppendHeader(table.Row{"Metric", "Value"})
	overview.AppendRows([]table.Row{
		{"Paid members", model.Stats.TotalMembers},
		{"Active members", model.Stats.ActiveMembers},
		{"Completed pathways", model.Stats.CompletedPathwaysTotal},
	})
	out.WriteString(overview.RenderMarkdown())
	out.WriteString("\n\n")

	if len(model.PathwayDistribution) > 0 {
		out.WriteString("## Pathway Distribution\n\n")
		out.WriteString(distributionTable(model.PathwayDistribution, "Pathway"))
		out.WriteString("\n\n")
	}
	if len(model.LevelDistribution) > 0 {
		out.WriteString("## Level Distribution\n\n")
		out.WriteString(distributionTable(model.LevelDistribution, "Level"))
		out.WriteString("\n\n")
	}

	out.WriteString("## Members\n\n")
	for _, member := range model.Members {
		fmt.Fprintf(&out, "### %s\n\n", member.DisplayName)
		if member.Incomplete {
			out.WriteString("*Some data for this member could not be collected.*\n\n")
		}
		if len(member.Pathways) == 0 {
			out.WriteString("No pathway enrollments.\n\n")
			continue
		}

		pathways := table.NewWriter()
		pathways.AppendHeader(table.Row{"Pathway", "Level", "Complete", "Left in Level", "Left in Pathway", "Status"})
		for _, pathway := range member.Pathways {
			pathways.AppendRow(table.Row{
				pathway.Name,
				pathway.CurrentLevel,
				fmt.Sprintf("%.1f%%", pathway.CompletionPercent),
				pathway.RemainingInLevel,
				pathway.RemainingInPathway,
				pathway.Status,
			})
		}
		out.WriteString(pathways.RenderMarkdown())
		out.WriteString("\n\n")

		if len(member.NextProjects) > 0 {
			out.WriteString("Next up:\n\n")
			for _, project := range member.NextProjects {
				fmt.Fprintf(&out, "- %s (%s, level %d, %s)\n",
					project.Name, project.Type, project.Level, project.Duration)
			}
			out.WriteString("\n")
		}
	}

	return []byte(out.String()), nil
}

func distributionTable(rows []DistributionRow, label string) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{label, "Members"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Label, row.Count})
	}
	return t.RenderMarkdown()
}
