package report

import (
	"testing"
	"time"

	"clubreport-backend/services/clubdata"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleClub() (*clubdata.Club, clubdata.Summary) {
	club := &clubdata.Club{
		ClubID:   "club-1",
		ClubName: "Downtown Speakers",
		Members: []clubdata.Member{
			{
				Username:   "alice",
				FirstName:  "Alice",
				LastName:   "Ng",
				Email:      "alice@example.org",
				IsPaid:     true,
				IsEnrolled: true,
				Enrollments: []clubdata.PathwayEnrollment{
					{
						Name:               "Presentation Mastery",
						CourseId:           "course-a",
						CurrentLevel:       2,
						CompletionPercent:  35.7,
						RemainingInLevel:   4,
						RemainingInPathway: 9,
						Status:             clubdata.StatusActive,
					},
				},
				NextProjects: []clubdata.NextProject{
					{Name: "Managing Time", Type: "project", PathwayName: "Presentation Mastery", Duration: "45 min", Level: 2},
				},
				Summary: clubdata.MemberSummary{
					TotalPathways:     1,
					ActivePathways:    1,
					MostActivePathway: "Presentation Mastery",
				},
			},
			{
				Username:   "bob",
				FirstName:  "Bob",
				LastName:   "Reyes",
				Email:      "bob@example.org",
				IsPaid:     true,
				IsEnrolled: true,
				Incomplete: true,
			},
		},
	}
	summary := clubdata.Summary{
		TotalMembers:           2,
		ActiveMembers:          2,
		CompletedPathwaysTotal: 0,
		IncompleteMembers:      1,
		PathwayDistribution:    []clubdata.Count{{Key: "Presentation Mastery", N: 1}},
		LevelDistribution:      []clubdata.LevelCount{{Level: 2, N: 1}},
		GeneratedAt:            time.Date(2024, 9, 1, 19, 30, 0, 0, time.UTC),
	}
	return club, summary
}

func TestBuildIsDeterministic(t *testing.T) {
	club, summary := sampleClub()

	first := Build(club, summary, "run-1")
	second := Build(club, summary, "run-1")
	require.Empty(t, cmp.Diff(first, second))
}

func TestBuildFlagsIncompleteMembers(t *testing.T) {
	club, summary := sampleClub()
	model := Build(club, summary, "run-1")

	require.Len(t, model.Members, 2)
	require.False(t, model.Members[0].Incomplete)
	require.True(t, model.Members[1].Incomplete)
	require.Len(t, model.Warnings, 1)
	require.Contains(t, model.Warnings[0], "Bob Reyes")
}

func TestBuildPreservesDistributionOrder(t *testing.T) {
	club, summary := sampleClub()
	summary.PathwayDistribution = []clubdata.Count{
		{Key: "Presentation Mastery", N: 3},
		{Key: "Innovative Planning", N: 1},
	}

	model := Build(club, summary, "run-1")
	require.Equal(t, "Presentation Mastery", model.PathwayDistribution[0].Label)
	require.Equal(t, "Innovative Planning", model.PathwayDistribution[1].Label)
	require.Equal(t, "Level 2", model.LevelDistribution[0].Label)
}

func TestFilename(t *testing.T) {
	date := time.Date(2024, 9, 1, 19, 30, 0, 0, time.UTC)

	require.Equal(t,
		"downtown_speakers_2024-09-01_report.xlsx",
		Filename("Downtown Speakers", date, "xlsx"))
	require.Equal(t,
		"caf_toasters_club_2024-09-01_report.md",
		Filename("Café Toasters (Club)", date, "md"))
}
