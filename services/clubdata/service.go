// Package clubdata collects the club roster and every member's
// pathway progress from the platform and rolls it up into a club
// summary. Roster fetches are fatal when they fail, per-member detail
// fetches are not, a member with missing pieces is marked incomplete
// and the run carries on. Losing the session entirely is fatal no
// matter where it happens.
package clubdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clubreport-backend/lib/progresstore"
	"clubreport-backend/lib/scrapers/basecamp"
	"clubreport-backend/lib/scrapers/basecamp/catalog"
	"clubreport-backend/lib/timezone"
	"clubreport-backend/services/auth"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("services/clubdata")

var ErrRosterUnavailable = errors.New("club roster could not be fetched")

type Club struct {
	ClubID   string
	ClubName string
	// roster order as returned by the platform
	Members []Member
}

type Options struct {
	// parallel member detail fetches, default 5
	Concurrency int
}

type Service struct {
	client      *basecamp.Client
	catalog     *catalog.Client
	progress    *progresstore.Store
	concurrency int
}

// NewService wires the collector. catalog and progress are optional,
// without them members simply lose project enrichment and level
// regression checks.
func NewService(client *basecamp.Client, catalogClient *catalog.Client, progress *progresstore.Store, opts Options) Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return Service{
		client:      client,
		catalog:     catalogClient,
		progress:    progress,
		concurrency: opts.Concurrency,
	}
}

// Aggregate runs one full collection pass over the club.
func (s Service) Aggregate(ctx context.Context, clubID, clubName string) (*Club, Summary, error) {
	ctx, span := tracer.Start(ctx, "service:Aggregate")
	defer span.End()

	overview, err := s.client.Overview(ctx, clubID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "overview fetch failed")
		return nil, Summary{}, fmt.Errorf("%w: overview: %s", ErrRosterUnavailable, err)
	}
	progressRows, err := s.client.Progress(ctx, clubID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "progress fetch failed")
		return nil, Summary{}, fmt.Errorf("%w: progress: %s", ErrRosterUnavailable, err)
	}

	club := &Club{ClubID: clubID, ClubName: clubName}
	club.Members = assembleRoster(overview, progressRows)

	err = s.fetchNextProjects(ctx, club.Members)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "platform stopped accepting the session")
		return nil, Summary{}, err
	}
	s.enrichNextProjects(ctx, club.Members)

	for i := range club.Members {
		club.Members[i].buildSummary()
	}

	s.recordLevels(ctx, club.Members)

	summary := buildSummary(club.Members)
	if summary.IncompleteMembers > 0 {
		slog.WarnContext(ctx, "some members have incomplete data",
			"incomplete", summary.IncompleteMembers, "total", len(club.Members))
	}
	slog.InfoContext(ctx, "aggregated club data",
		"club", clubName, "members", len(club.Members))
	return club, summary, nil
}

func assembleRoster(overview []basecamp.OverviewResult, progressRows []basecamp.ProgressResult) []Member {
	var members []Member
	index := make(map[string]int)

	for _, row := range overview {
		username := row.User.Username
		if _, seen := index[username]; seen {
			continue
		}
		index[username] = len(members)
		members = append(members, newMember(row))
	}

	for _, row := range progressRows {
		i, ok := index[row.User.Username]
		if !ok {
			// enrollment without a roster entry, platform data is out
			// of sync, skip it
			slog.Warn("progress row for unknown member", "username", row.User.Username)
			continue
		}
		members[i].addEnrollment(row)
	}

	return members
}

// fetchNextProjects pulls the detailed course tree of every
// enrollment to find each member's next project. Each worker owns one
// member slot, a failed fetch marks that member incomplete but never
// stops the others. The one exception is losing the session itself, an
// unauthorized response that survived the client's refresh cycle (or a
// failed re-login) means every remaining fetch is doomed, so the whole
// pass aborts.
func (s Service) fetchNextProjects(ctx context.Context, members []Member) error {
	ctx, span := tracer.Start(ctx, "service:fetchNextProjects")
	defer span.End()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i := range members {
		member := &members[i]
		group.Go(func() error {
			for _, enrollment := range member.Enrollments {
				detail, err := s.client.ProgressDetail(ctx, enrollment.CourseId, member.Username)
				if err != nil {
					if sessionLost(err) {
						return err
					}
					slog.WarnContext(ctx, "failed to fetch progress detail",
						"username", member.Username, "course", enrollment.CourseId, "err", err)
					member.Incomplete = true
					continue
				}
				project, ok := nextProjectFromDetail(detail, enrollment.CourseId)
				if ok {
					member.NextProjects = append(member.NextProjects, project)
				}
			}
			return nil
		})
	}
	return group.Wait()
}

// sessionLost reports whether a fetch error means the run has no
// usable session anymore. Transient and rejected request errors stay
// per-member, the member just ends up incomplete.
func sessionLost(err error) bool {
	var reqErr *basecamp.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind == basecamp.KindUnauthorized
	}
	var authErr *auth.Error
	return errors.As(err, &authErr)
}

// enrichNextProjects fills in duration and type from the public
// pathway catalog. Enrichment is best effort, catalog failures leave
// the fallback values in place.
func (s Service) enrichNextProjects(ctx context.Context, members []Member) {
	if s.catalog == nil {
		return
	}

	for i := range members {
		for j := range members[i].NextProjects {
			project := &members[i].NextProjects[j]

			pathway, err := s.catalog.Pathway(ctx, project.PathwayName)
			if err != nil {
				slog.WarnContext(ctx, "catalog lookup failed",
					"pathway", project.PathwayName, "err", err)
				continue
			}
			details, ok := pathway.ProjectDetails(project.Name, project.Level)
			if !ok {
				continue
			}
			if details.Duration != "" {
				project.Duration = details.Duration
			}
			if details.Type != "" {
				project.Type = details.Type
			}
		}
	}
}

// recordLevels snapshots observed levels and warns when a member's
// level went backwards since the previous run. The platform never
// revokes levels, a regression means it served stale or wrong data.
func (s Service) recordLevels(ctx context.Context, members []Member) {
	if s.progress == nil {
		return
	}

	previous, err := s.progress.LatestLevels(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to load previous levels", "err", err)
		return
	}

	var snapshots []progresstore.LevelSnapshot
	for _, member := range members {
		if member.Incomplete {
			continue
		}
		for _, enrollment := range member.Enrollments {
			key := progresstore.Key{Member: member.Username, Pathway: enrollment.Name}
			if last, ok := previous[key]; ok && enrollment.CurrentLevel < last {
				slog.WarnContext(ctx, "member level regressed",
					"username", member.Username, "pathway", enrollment.Name,
					"was", last, "now", enrollment.CurrentLevel)
			}
			snapshots = append(snapshots, progresstore.LevelSnapshot{
				Member:  member.Username,
				Pathway: enrollment.Name,
				Level:   enrollment.CurrentLevel,
			})
		}
	}

	err = s.progress.Push(ctx, progresstore.PushRequest{
		Time:   timezone.Now(),
		Levels: snapshots,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to store level snapshots", "err", err)
	}
}
