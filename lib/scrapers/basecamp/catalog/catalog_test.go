package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const pathwayPage = `<html><body>
<section class="pathway-level">
	<h3>Level 1</h3>
	<ul>
		<li class="project" data-type="speech">
			<span class="project-name">Ice Breaker</span>
			<span class="project-duration">4-6 minutes</span>
		</li>
	</ul>
</section>
<section class="pathway-level">
	<h3>Level 2</h3>
	<ul>
		<li class="project" data-type="elective">
			<span class="project-name">Choose 2 electives from Level 2</span>
			<span class="project-duration">Varies by selection</span>
			<ul class="elective-options">
				<li>Active Listening</li>
				<li>Body  Language</li>
			</ul>
		</li>
	</ul>
</section>
</body></html>`

const indexPage = `<html><body>
<nav class="pathway-list">
	<a href="/resources/pathways/presentation-mastery">Presentation Mastery</a>
	<a href="/resources/pathways/innovative-planning">Innovative
		Planning</a>
</nav>
</body></html>`

func TestParsePathway(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pathwayPage))
	require.NoError(t, err)

	pathway := parsePathway("Presentation Mastery", doc)
	require.Len(t, pathway.Projects, 2)

	require.Equal(t, Project{
		Name:     "Ice Breaker",
		Type:     "speech",
		Duration: "4-6 minutes",
		Level:    1,
	}, pathway.Projects[0])

	elective := pathway.Projects[1]
	require.Equal(t, "elective", elective.Type)
	require.Equal(t, 2, elective.Level)
	require.Equal(t, []string{"Active Listening", "Body Language"}, elective.ElectiveOptions)
}

func TestProjectDetails(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pathwayPage))
	require.NoError(t, err)
	pathway := parsePathway("Presentation Mastery", doc)

	// exact match, names normalize across spacing and case
	project, ok := pathway.ProjectDetails("ice breaker", 1)
	require.True(t, ok)
	require.Equal(t, "4-6 minutes", project.Duration)

	// an elective option resolves to its slot
	project, ok = pathway.ProjectDetails("Active Listening", 2)
	require.True(t, ok)
	require.Equal(t, "elective", project.Type)

	_, ok = pathway.ProjectDetails("Ice Breaker", 3)
	require.False(t, ok)
}

func TestPathwayCaches(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, pathwayPage)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	first, err := client.Pathway(ctx, "Presentation Mastery")
	require.NoError(t, err)
	second, err := client.Pathway(ctx, "Presentation Mastery")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, hits.Load())
}

func TestPathwaysIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexPage)
	}))
	defer server.Close()

	names, err := NewClient(server.URL).Pathways(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Presentation Mastery", "Innovative Planning"}, names)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "presentation-mastery", slugify("Presentation Mastery"))
	require.Equal(t, "engaging-humor", slugify("  Engaging Humor! "))
}
