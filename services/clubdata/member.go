package clubdata

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"clubreport-backend/lib/scrapers/basecamp"
)

type EnrollmentStatus string

const (
	StatusActive    EnrollmentStatus = "active"
	StatusCompleted EnrollmentStatus = "completed"
	StatusInactive  EnrollmentStatus = "inactive"
)

// PathwayEnrollment is one pathway a member is working through,
// with progress figures derived from the level progression payload.
type PathwayEnrollment struct {
	Name               string
	CourseId           string
	CurrentLevel       int
	CompletionPercent  float64
	RemainingInLevel   int
	RemainingInPathway int
	Status             EnrollmentStatus
}

type NextProject struct {
	Name        string
	Type        string
	PathwayName string
	CourseId    string
	Duration    string
	Level       int
}

type MemberSummary struct {
	TotalPathways     int
	ActivePathways    int
	CompletedPathways int
	MostActivePathway string
}

type Member struct {
	Id                int64
	Username          string
	FirstName         string
	LastName          string
	Email             string
	IsPaid            bool
	IsEnrolled        bool
	CompletedPathways []string
	Enrollments       []PathwayEnrollment
	NextProjects      []NextProject
	Summary           MemberSummary

	// set when part of this member's data could not be collected
	Incomplete bool
}

func (m Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func newMember(row basecamp.OverviewResult) Member {
	return Member{
		Id:                row.User.Id,
		Username:          row.User.Username,
		FirstName:         row.User.FirstName,
		LastName:          row.User.LastName,
		Email:             row.User.Email,
		IsPaid:            row.IsPaid,
		IsEnrolled:        row.IsEnrolled,
		CompletedPathways: row.CompletedPaths,
	}
}

const maxLevel = 5

// currentLevel walks the per-level progression to find where the
// member currently is. A level counts as passed once it is approved or
// every project in it is complete, the first level with partial
// progress is the current one.
func currentLevel(progression map[string]basecamp.LevelProgress) (level int, remainingInLevel int) {
	level = 1

	for n := 1; n <= maxLevel; n++ {
		data, ok := progression[fmt.Sprintf("Level %d", n)]
		if !ok {
			continue
		}
		if data.Approved || data.Completed == data.Total {
			level = n + 1
		} else if data.Completed > 0 {
			level = n
			remainingInLevel = data.Total - data.Completed
			break
		}
	}

	return min(level, maxLevel), max(remainingInLevel, 0)
}

func completionPercent(progression map[string]basecamp.LevelProgress) (percent float64, remainingInPathway int) {
	total := 0
	completed := 0
	for name, data := range progression {
		if !strings.HasPrefix(name, "Level") {
			continue
		}
		total += data.Total
		completed += data.Completed
	}

	if total > 0 {
		percent = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return percent, max(total-completed, 0)
}

func (m *Member) addEnrollment(row basecamp.ProgressResult) {
	level, remainingInLevel := currentLevel(row.Progression)
	percent, remainingInPathway := completionPercent(row.Progression)

	status := StatusActive
	switch {
	case slices.Contains(m.CompletedPathways, row.PathName):
		status = StatusCompleted
	case !m.IsEnrolled:
		status = StatusInactive
	}

	m.Enrollments = append(m.Enrollments, PathwayEnrollment{
		Name:               row.PathName,
		CourseId:           row.CourseId,
		CurrentLevel:       level,
		CompletionPercent:  percent,
		RemainingInLevel:   remainingInLevel,
		RemainingInPathway: remainingInPathway,
		Status:             status,
	})
}

var levelNumber = regexp.MustCompile(`Level\s*(\d+)`)

func extractLevelNumber(name string) int {
	groups := levelNumber.FindStringSubmatch(name)
	if len(groups) < 2 {
		return 0
	}
	n, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0
	}
	return n
}

// nextProjectFromDetail walks the course content tree and returns the
// first project the member hasn't finished yet. Levels appear as
// chapters and projects as sequentials. Electives within a level are
// collapsed into one "choose N" entry because any of them satisfies
// the requirement.
func nextProjectFromDetail(detail basecamp.ProgressDetail, courseId string) (NextProject, bool) {
	pathwayName := detail.Blocks.DisplayName

	for _, chapter := range detail.Blocks.Children {
		if chapter.Type != "chapter" {
			continue
		}
		level := extractLevelNumber(chapter.DisplayName)

		var incomplete []NextProject
		electiveChoices := 0
		completedElectives := 0

		for _, child := range chapter.Children {
			if child.Type != "sequential" {
				continue
			}
			if child.Complete {
				if child.BlockLibType == "elective" {
					completedElectives++
				}
				continue
			}
			if child.BlockLibType == "elective" {
				electiveChoices++
				continue
			}

			kind := "project"
			if strings.Contains(strings.ToLower(child.DisplayName), "speech") {
				kind = "speech"
			}
			incomplete = append(incomplete, NextProject{
				Name:        strings.TrimSpace(strings.ReplaceAll(child.DisplayName, "(Legacy)", "")),
				Type:        kind,
				PathwayName: pathwayName,
				CourseId:    courseId,
				Duration:    "Duration not specified",
				Level:       level,
			})
		}

		if electiveChoices > 0 && chapter.MinReqElectives > 0 {
			remaining := chapter.MinReqElectives - completedElectives
			incomplete = append(incomplete, NextProject{
				Name:        fmt.Sprintf("Choose %d elective(s) from %s", remaining, chapter.DisplayName),
				Type:        "elective",
				PathwayName: pathwayName,
				CourseId:    courseId,
				Duration:    "Varies by selection",
				Level:       level,
			})
		}

		// the member's next work is in the first level that still has
		// anything open
		if len(incomplete) > 0 {
			return incomplete[0], true
		}
	}

	return NextProject{}, false
}

func (m *Member) buildSummary() {
	total := len(m.Enrollments)
	for _, completed := range m.CompletedPathways {
		enrolled := slices.ContainsFunc(m.Enrollments, func(e PathwayEnrollment) bool {
			return e.Name == completed
		})
		if !enrolled {
			total++
		}
	}

	active := 0
	for _, enrollment := range m.Enrollments {
		if enrollment.Status == StatusActive {
			active++
		}
	}

	mostActive := "None"
	best := -1.0
	for _, enrollment := range m.Enrollments {
		if enrollment.CompletionPercent > best {
			best = enrollment.CompletionPercent
			mostActive = enrollment.Name
		}
	}

	m.Summary = MemberSummary{
		TotalPathways:     total,
		ActivePathways:    active,
		CompletedPathways: len(m.CompletedPathways),
		MostActivePathway: mostActive,
	}
}

// primaryEnrollment is the active enrollment the member counts under
// in club-wide distributions, the one they have progressed furthest
// in. Ties keep the earlier enrollment.
func (m Member) primaryEnrollment() (PathwayEnrollment, bool) {
	var primary PathwayEnrollment
	found := false
	best := -1.0

	for _, enrollment := range m.Enrollments {
		if enrollment.Status != StatusActive {
			continue
		}
		if enrollment.CompletionPercent > best {
			best = enrollment.CompletionPercent
			primary = enrollment
			found = true
		}
	}
	return primary, found
}
