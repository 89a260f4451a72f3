package catalog

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clubreport-backend/lib/htmlutil"
	"clubreport-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/basecamp/catalog")

// Project is a catalog entry for one project within a pathway level.
type Project struct {
	Name     string
	Type     string
	Duration string
	Level    int
	// names that satisfy this slot when the project is an elective
	ElectiveOptions []string
}

type Pathway struct {
	Name     string
	Projects []Project
}

// Client scrapes the public pathway catalog pages. The catalog
// changes rarely so parsed pathways are cached for a while.
type Client struct {
	http  *resty.Client
	cache *expirable.LRU[string, Pathway]
}

func NewClient(baseUrl string) *Client {
	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/basecamp/catalog/http")

	return &Client{
		http:  client,
		cache: expirable.NewLRU[string, Pathway](64, nil, time.Hour*6),
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

var levelHeading = regexp.MustCompile(`Level\s+(\d+)`)

func (c *Client) Pathway(ctx context.Context, name string) (Pathway, error) {
	ctx, span := tracer.Start(ctx, "client:Pathway")
	defer span.End()

	key := slugify(name)
	cached, hit := c.cache.Get(key)
	if hit {
		span.SetStatus(codes.Ok, "CACHE HIT")
		return cached, nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get("/resources/pathways/" + key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch catalog page")
		return Pathway{}, err
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "unexpected catalog status")
		return Pathway{}, fmt.Errorf("catalog page for %q: status %d", name, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse catalog html")
		return Pathway{}, err
	}

	pathway := parsePathway(name, doc)
	c.cache.Add(key, pathway)
	return pathway, nil
}

func parsePathway(name string, doc *goquery.Document) Pathway {
	pathway := Pathway{Name: name}

	doc.Find("section.pathway-level").Each(func(_ int, section *goquery.Selection) {
		heading := htmlutil.CleanText(section.Find("h3").First().Text())
		groups := levelHeading.FindStringSubmatch(heading)
		if len(groups) < 2 {
			return
		}
		level, err := strconv.Atoi(groups[1])
		if err != nil {
			return
		}

		section.Find("li.project").Each(func(_ int, li *goquery.Selection) {
			project := Project{
				Name:     htmlutil.CleanText(li.Find(".project-name").First().Text()),
				Type:     li.AttrOr("data-type", "project"),
				Duration: htmlutil.CleanText(li.Find(".project-duration").First().Text()),
				Level:    level,
			}
			li.Find("ul.elective-options li").Each(func(_ int, opt *goquery.Selection) {
				project.ElectiveOptions = append(
					project.ElectiveOptions,
					htmlutil.CleanText(opt.Text()),
				)
			})
			if project.Name != "" {
				pathway.Projects = append(pathway.Projects, project)
			}
		})
	})

	return pathway
}

// Pathways lists the pathway names linked from the catalog index.
func (c *Client) Pathways(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:Pathways")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get("/resources/pathways/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch catalog index")
		return nil, err
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "unexpected catalog status")
		return nil, fmt.Errorf("catalog index: status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse catalog html")
		return nil, err
	}

	var names []string
	for _, anchor := range htmlutil.GetAnchors(doc.Find("nav.pathway-list")) {
		if anchor.Name != "" {
			names = append(names, anchor.Name)
		}
	}
	return names, nil
}

// project names are inconsistent about spacing between the catalog
// and the progress api
func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// ProjectDetails looks up a project (or the elective slot covering
// it) within the pathway at the given level.
func (p Pathway) ProjectDetails(name string, level int) (Project, bool) {
	target := normalizeName(name)

	for _, project := range p.Projects {
		if project.Level != level {
			continue
		}
		if normalizeName(project.Name) == target {
			return project, true
		}
		if project.Type == "elective" && !strings.Contains(target, "elective") {
			for _, option := range project.ElectiveOptions {
				if normalizeName(option) == target {
					return project, true
				}
			}
		}
	}
	return Project{}, false
}
