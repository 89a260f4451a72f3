package report

import (
	"bytes"
	"context"
	"fmt"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// DashboardRenderer writes a self-contained html page. Members are
// collapsible so officers can skim the club totals and only expand
// whoever they're coaching.
type DashboardRenderer struct{}

func (DashboardRenderer) Name() string { return "dashboard" }
func (DashboardRenderer) Ext() string  { return "html" }

const dashboardStyle = `
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 56rem; color: #1f2328; }
h1 { margin-bottom: 0.25rem; }
.generated { color: #59636e; margin-top: 0; }
.warning { background: #fff8c5; border: 1px solid #d4a72c; padding: 0.5rem 0.75rem; border-radius: 6px; margin: 0.5rem 0; }
.stats { display: flex; gap: 1rem; margin: 1rem 0; }
.stat { border: 1px solid #d1d9e0; border-radius: 6px; padding: 0.75rem 1rem; flex: 1; }
.stat b { display: block; font-size: 1.5rem; }
.bar-row { display: flex; align-items: center; gap: 0.5rem; margin: 0.25rem 0; }
.bar-label { width: 14rem; }
.bar { background: #0969da; height: 1rem; border-radius: 3px; }
details { border: 1px solid #d1d9e0; border-radius: 6px; padding: 0.5rem 0.75rem; margin: 0.5rem 0; }
summary { cursor: pointer; font-weight: 600; }
table { border-collapse: collapse; margin: 0.5rem 0; }
th, td { border: 1px solid #d1d9e0; padding: 0.25rem 0.5rem; text-align: left; }
.incomplete { color: #9a6700; font-weight: 400; }
`

func (DashboardRenderer) Render(ctx context.Context, model Model) ([]byte, error) {
	page := Doctype(HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(model.ClubName+" Club Report")),
			StyleEl(Raw(dashboardStyle)),
		),
		Body(
			H1(Text(model.ClubName+" Club Report")),
			P(Class("generated"), Text("Generated "+model.GeneratedAt.Format("January 2, 2006 3:04 PM"))),
			warningsSection(model.Warnings),
			statsSection(model.Stats),
			distributionSection("Pathway Distribution", model.PathwayDistribution),
			distributionSection("Level Distribution", model.LevelDistribution),
			H2(Text("Members")),
			Group(memberSections(model.Members)),
		),
	))

	var buffer bytes.Buffer
	err := page.Render(&buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func warningsSection(warnings []string) Node {
	if len(warnings) == 0 {
		return nil
	}
	var nodes []Node
	for _, warning := range warnings {
		nodes = append(nodes, Div(Class("warning"), Text(warning)))
	}
	return Group(nodes)
}

func statsSection(stats Stats) Node {
	stat := func(label string, value int) Node {
		return Div(Class("stat"), B(Text(fmt.Sprint(value))), Text(label))
	}
	return Div(Class("stats"),
		stat("Paid members", stats.TotalMembers),
		stat("Active members", stats.ActiveMembers),
		stat("Completed pathways", stats.CompletedPathwaysTotal),
	)
}

func distributionSection(title string, rows []DistributionRow) Node {
	if len(rows) == 0 {
		return nil
	}

	maxCount := 0
	for _, row := range rows {
		maxCount = max(maxCount, row.Count)
	}

	var bars []Node
	for _, row := range rows {
		// widest bar takes 30% of the row, the rest scale against it
		width := row.Count * 30 / maxCount
		bars = append(bars, Div(Class("bar-row"),
			Span(Class("bar-label"), Text(row.Label)),
			Div(Class("bar"), Style(fmt.Sprintf("width: %d%%", width))),
			Span(Text(fmt.Sprint(row.Count))),
		))
	}
	return Group([]Node{H2(Text(title)), Group(bars)})
}

func memberSections(members []MemberRow) []Node {
	var nodes []Node
	for _, member := range members {
		summary := []Node{Text(member.DisplayName)}
		if member.Incomplete {
			summary = append(summary, Span(Class("incomplete"), Text(" (incomplete data)")))
		}

		body := []Node{Summary(summary...)}
		if len(member.Pathways) > 0 {
			body = append(body, pathwayTable(member.Pathways))
		} else {
			body = append(body, P(Text("No pathway enrollments.")))
		}
		if len(member.NextProjects) > 0 {
			var items []Node
			for _, project := range member.NextProjects {
				items = append(items, Li(Text(fmt.Sprintf("%s (%s, level %d, %s)",
					project.Name, project.Type, project.Level, project.Duration))))
			}
			body = append(body, P(Text("Next up:")), Ul(items...))
		}

		nodes = append(nodes, Details(body...))
	}
	return nodes
}

func pathwayTable(pathways []PathwayRow) Node {
	rows := []Node{
		Tr(
			Th(Text("Pathway")), Th(Text("Level")), Th(Text("Complete")),
			Th(Text("Left in Level")), Th(Text("Left in Pathway")), Th(Text("Status")),
		),
	}
	for _, pathway := range pathways {
		rows = append(rows, Tr(
			Td(Text(pathway.Name)),
			Td(Text(fmt.Sprint(pathway.CurrentLevel))),
			Td(Text(fmt.Sprintf("%.1f%%", pathway.CompletionPercent))),
			Td(Text(fmt.Sprint(pathway.RemainingInLevel))),
			Td(Text(fmt.Sprint(pathway.RemainingInPathway))),
			Td(Text(pathway.Status)),
		))
	}
	return Table(rows...)
}
