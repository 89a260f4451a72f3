package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"clubreport-backend/services/clubdata"
)

// Model is everything a renderer needs, already flattened and
// ordered. Building it is pure so every renderer sees the exact same
// report regardless of which formats are enabled.
type Model struct {
	ClubName    string
	ClubID      string
	RunID       string
	GeneratedAt time.Time
	Warnings    []string

	Stats               Stats
	PathwayDistribution []DistributionRow
	LevelDistribution   []DistributionRow
	Members             []MemberRow
}

type Stats struct {
	TotalMembers           int
	ActiveMembers          int
	CompletedPathwaysTotal int
	IncompleteMembers      int
}

type DistributionRow struct {
	Label string
	Count int
}

type MemberRow struct {
	DisplayName       string
	Email             string
	Incomplete        bool
	MostActivePathway string
	Pathways          []PathwayRow
	NextProjects      []ProjectRow
}

type PathwayRow struct {
	Name               string
	CurrentLevel       int
	CompletionPercent  float64
	RemainingInLevel   int
	RemainingInPathway int
	Status             string
}

type ProjectRow struct {
	Name     string
	Type     string
	Pathway  string
	Duration string
	Level    int
}

func Build(club *clubdata.Club, summary clubdata.Summary, runID string) Model {
	model := Model{
		ClubName:    club.ClubName,
		ClubID:      club.ClubID,
		RunID:       runID,
		GeneratedAt: summary.GeneratedAt,
		Stats: Stats{
			TotalMembers:           summary.TotalMembers,
			ActiveMembers:          summary.ActiveMembers,
			CompletedPathwaysTotal: summary.CompletedPathwaysTotal,
			IncompleteMembers:      summary.IncompleteMembers,
		},
	}

	for _, count := range summary.PathwayDistribution {
		model.PathwayDistribution = append(model.PathwayDistribution, DistributionRow{
			Label: count.Key,
			Count: count.N,
		})
	}
	for _, count := range summary.LevelDistribution {
		model.LevelDistribution = append(model.LevelDistribution, DistributionRow{
			Label: fmt.Sprintf("Level %d", count.Level),
			Count: count.N,
		})
	}

	for _, member := range club.Members {
		row := MemberRow{
			DisplayName:       member.DisplayName(),
			Email:             member.Email,
			Incomplete:        member.Incomplete,
			MostActivePathway: member.Summary.MostActivePathway,
		}
		for _, enrollment := range member.Enrollments {
			row.Pathways = append(row.Pathways, PathwayRow{
				Name:               enrollment.Name,
				CurrentLevel:       enrollment.CurrentLevel,
				CompletionPercent:  enrollment.CompletionPercent,
				RemainingInLevel:   enrollment.RemainingInLevel,
				RemainingInPathway: enrollment.RemainingInPathway,
				Status:             string(enrollment.Status),
			})
		}
		for _, project := range member.NextProjects {
			row.NextProjects = append(row.NextProjects, ProjectRow{
				Name:     project.Name,
				Type:     project.Type,
				Pathway:  project.PathwayName,
				Duration: project.Duration,
				Level:    project.Level,
			})
		}
		if member.Incomplete {
			model.Warnings = append(model.Warnings,
				fmt.Sprintf("data for %s is incomplete, some figures exclude this member", row.DisplayName))
		}
		model.Members = append(model.Members, row)
	}

	return model
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9_]+`)

// Filename builds the deterministic output name, e.g.
// "downtown_speakers_2024-09-01_report.xlsx".
func Filename(clubName string, date time.Time, ext string) string {
	name := strings.ToLower(clubName)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return fmt.Sprintf("%s_%s_report.%s", name, date.Format("2006-01-02"), ext)
}
