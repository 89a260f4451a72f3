package clubdata

import (
	"sort"
	"time"

	"clubreport-backend/lib/timezone"
)

type Count struct {
	Key string
	N   int
}

type LevelCount struct {
	Level int
	N     int
}

// Summary is the club-wide rollup of a collection run. Distribution
// slices are ordered, pathways by first appearance in the roster and
// levels ascending, so reports render the same way every run.
type Summary struct {
	TotalMembers           int
	ActiveMembers          int
	CompletedPathwaysTotal int
	IncompleteMembers      int
	PathwayDistribution    []Count
	LevelDistribution      []LevelCount
	GeneratedAt            time.Time
}

func buildSummary(members []Member) Summary {
	summary := Summary{GeneratedAt: timezone.Now()}

	for _, member := range members {
		if member.IsPaid {
			summary.TotalMembers++
			if member.IsEnrolled {
				summary.ActiveMembers++
			}
		}
		if member.Incomplete {
			// partial data would skew the distributions, only the
			// headcount above includes this member
			summary.IncompleteMembers++
			continue
		}

		summary.CompletedPathwaysTotal += member.Summary.CompletedPathways

		// a member working several pathways at once still counts once,
		// under their primary enrollment
		primary, ok := member.primaryEnrollment()
		if ok {
			summary.PathwayDistribution = bump(summary.PathwayDistribution, primary.Name)
			summary.LevelDistribution = bumpLevel(summary.LevelDistribution, primary.CurrentLevel)
		}
	}

	sort.Slice(summary.LevelDistribution, func(i, j int) bool {
		return summary.LevelDistribution[i].Level < summary.LevelDistribution[j].Level
	})
	return summary
}

func bump(counts []Count, key string) []Count {
	for i := range counts {
		if counts[i].Key == key {
			counts[i].N++
			return counts
		}
	}
	return append(counts, Count{Key: key, N: 1})
}

func bumpLevel(counts []LevelCount, level int) []LevelCount {
	for i := range counts {
		if counts[i].Level == level {
			counts[i].N++
			return counts
		}
	}
	return append(counts, LevelCount{Level: level, N: 1})
}
