package notes

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shownotes/internal/models"
)

const sampleNotes = `---
number: 7
title: Tooling and Setup
date: 1499875200000
url: https://example.com/007.mp3
guests:
  - name: Wes
    twitter: wesbos
---

In this episode we talk about [editors](https://example.com/editors "Editors").

## Show Notes

* 00:10 Intro

## Sick Picks

* Wes: [A keyboard](https://example.com/keyboard)
* Scott: Coffee

## Shameless Plugs

* https://example.com/course
`

func TestParseBuildsEpisode(t *testing.T) {
	p := NewParser()
	episode, err := p.Parse([]byte(sampleNotes), "007 - tooling.md")
	require.NoError(t, err)

	assert.Equal(t, 7, episode.Number)
	assert.Empty(t, episode.DisplayNumber)
	assert.Equal(t, time.UnixMilli(1499875200000).UTC(), episode.Date)
	assert.Equal(t, "Jul 12th, 2017", episode.DisplayDate)
	assert.Equal(t, "src/shared/shows/007 - tooling.md", episode.NotesFile)
	assert.Equal(t, "Tooling and Setup", episode.Title())
	assert.Equal(t, "https://example.com/007.mp3", episode.Meta["url"])
	assert.NotContains(t, episode.Meta, "number")
	assert.NotContains(t, episode.Meta, "date")

	guests, ok := episode.Meta["guests"].([]any)
	require.True(t, ok, "guests should decode as a list")
	require.Len(t, guests, 1)
	assert.Equal(t, map[string]any{"name": "Wes", "twitter": "wesbos"}, guests[0])

	assert.Contains(t, episode.HTML, `<h2 id="sick-picks">Sick Picks</h2>`)
	assert.Contains(t, episode.HTML,
		`<a rel="noopener noreferrer" target="_blank" href="https://example.com/editors" title="Editors">editors</a>`)
}

func TestParseRewritesEveryLink(t *testing.T) {
	p := NewParser()
	raw := "---\nnumber: 1\ndate: 2020-01-01\n---\n" +
		"[inline](https://a.example) <https://b.example> https://c.example.com <hi@example.com>\n"
	episode, err := p.Parse([]byte(raw), "001.md")
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(episode.HTML, `<a rel="noopener noreferrer" target="_blank" href=`))
	assert.Contains(t, episode.HTML, `href="https://a.example">inline</a>`)
	assert.Contains(t, episode.HTML, `href="https://b.example">https://b.example</a>`)
	assert.Contains(t, episode.HTML, `href="https://c.example.com">https://c.example.com</a>`)
	assert.Contains(t, episode.HTML, `href="mailto:hi@example.com">hi@example.com</a>`)
	assert.NotContains(t, episode.HTML, "<a href=")
}

func TestParseExtractsPicksSection(t *testing.T) {
	p := NewParser()
	episode, err := p.Parse([]byte(sampleNotes), "007.md")
	require.NoError(t, err)

	require.NotNil(t, episode.Picks)
	assert.Equal(t, "sick-picks", episode.Picks.ID)
	assert.Equal(t, "Sick Picks", episode.Picks.Heading)
	assert.True(t, strings.HasPrefix(episode.Picks.BodyHTML, "<ul>"), episode.Picks.BodyHTML)
	assert.Contains(t, episode.Picks.BodyHTML, "Coffee")
	assert.Contains(t, episode.Picks.BodyHTML, `target="_blank" href="https://example.com/keyboard"`)
	assert.NotContains(t, episode.Picks.BodyHTML, "Shameless")
	assert.NotContains(t, episode.Picks.BodyHTML, "course")
}

func TestParsePicksHeadingVariations(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  string
		wantNil bool
	}{
		{name: "my picks", body: "## My Picks\n\nstuff\n\n## Next\n\nmore\n", wantID: "my-picks"},
		{name: "explicit id", body: "## Recommendations {#wes-picks}\n\nstuff\n\n## Next\n\nmore\n", wantID: "wes-picks"},
		{name: "last section", body: "## Intro\n\nhi\n\n## Picks\n\nstuff\n", wantNil: true},
		{name: "raw html heading", body: "<h2 id=\"my-picks\">My Picks</h2>\n\nstuff\n\n<h2>Next</h2>\n\nmore\n", wantID: "my-picks"},
		{name: "raw html boundary", body: "## Sick Picks\n\nstuff\n\n<h2 id=\"plugs\">Plugs</h2>\n\nmore\n", wantID: "sick-picks"},
		{name: "raw html last section", body: "<h2 id=\"sick-picks\">Sick Picks</h2>\n\nstuff\n", wantNil: true},
		{name: "level three ignored", body: "### Sick Picks\n\nstuff\n", wantNil: true},
		{name: "no picks", body: "## Show Notes\n\nstuff\n", wantNil: true},
	}

	p := NewParser()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := "---\nnumber: 3\ndate: 2020-03-03\n---\n" + tc.body
			episode, err := p.Parse([]byte(raw), "003.md")
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, episode.Picks)
				return
			}
			require.NotNil(t, episode.Picks)
			assert.Equal(t, tc.wantID, episode.Picks.ID)
			assert.Contains(t, episode.Picks.BodyHTML, "stuff")
			assert.NotContains(t, episode.Picks.BodyHTML, "more")
		})
	}
}

func TestParseRawHTMLPicksSection(t *testing.T) {
	raw := "---\nnumber: 9\ndate: 2020-03-03\n---\n" +
		"<p>intro</p>\n\n" +
		"<h2 id=\"my-picks\">My <em>Picks</em></h2>\n<ul><li>pick</li></ul>\n\n" +
		"* [more](https://example.com/more)\n\n" +
		"<h2 id=\"plugs\">Plugs</h2>\n\n* plug\n"

	episode, err := NewParser().Parse([]byte(raw), "009.md")
	require.NoError(t, err)
	require.NotNil(t, episode.Picks)
	assert.Equal(t, "my-picks", episode.Picks.ID)
	assert.Equal(t, "My Picks", episode.Picks.Heading)
	assert.True(t, strings.HasPrefix(episode.Picks.BodyHTML, "<ul><li>pick</li></ul>"), episode.Picks.BodyHTML)
	assert.Contains(t, episode.Picks.BodyHTML, `target="_blank" href="https://example.com/more"`)
	assert.NotContains(t, episode.Picks.BodyHTML, "Plugs")
	assert.NotContains(t, episode.Picks.BodyHTML, "plug")
}

func TestParseRawHTMLPicksInSingleBlock(t *testing.T) {
	raw := "---\nnumber: 9\ndate: 2020-03-03\n---\n" +
		"<h2 id=\"sick-picks\">Sick Picks</h2>\n<p>pick</p>\n<h2>Plugs</h2>\n<p>plug</p>\n"

	episode, err := NewParser().Parse([]byte(raw), "009.md")
	require.NoError(t, err)
	require.NotNil(t, episode.Picks)
	assert.Equal(t, "<p>pick</p>\n", episode.Picks.BodyHTML)

	episode, err = NewParser(WithSafeMode()).Parse([]byte(raw), "009.md")
	require.NoError(t, err)
	assert.Nil(t, episode.Picks, "raw headings are omitted in safe mode")
}

func TestParseRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "missing number", raw: "---\ndate: 2020-01-01\n---\nbody\n", field: "number"},
		{name: "missing date", raw: "---\nnumber: 1\n---\nbody\n", field: "date"},
		{name: "bad number", raw: "---\nnumber: one\ndate: 2020-01-01\n---\nbody\n", field: "number"},
		{name: "bad date", raw: "---\nnumber: 1\ndate: someday\n---\nbody\n", field: "date"},
		{name: "no front matter", raw: "# Just markdown\n", field: "number"},
	}

	p := NewParser()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tc.raw), "broken.md")
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrMalformedEpisode), "got %v", err)
			assert.Contains(t, err.Error(), "broken.md")
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestParseAcceptsStringNumber(t *testing.T) {
	p := NewParser(WithNotesPrefix("notes"))
	episode, err := p.Parse([]byte("---\nnumber: \"12\"\ndate: \"2021-02-12T10:00:00Z\"\n---\nbody\n"), "012.md")
	require.NoError(t, err)
	assert.Equal(t, 12, episode.Number)
	assert.Equal(t, "Feb 12th, 2021", episode.DisplayDate)
	assert.Equal(t, "notes/012.md", episode.NotesFile)
}

func TestParseSafeModeDropsRawHTML(t *testing.T) {
	raw := "---\nnumber: 1\ndate: 2020-01-01\n---\n<script>alert(1)</script>\n\n[x](javascript:alert(1))\n"

	episode, err := NewParser(WithSafeMode()).Parse([]byte(raw), "001.md")
	require.NoError(t, err)
	assert.NotContains(t, episode.HTML, "<script>")
	assert.NotContains(t, episode.HTML, "javascript:")

	episode, err = NewParser().Parse([]byte(raw), "001.md")
	require.NoError(t, err)
	assert.Contains(t, episode.HTML, "<script>")
}

func TestFormatDisplayDate(t *testing.T) {
	tests := map[string]string{
		"2020-01-01": "Jan 1st, 2020",
		"2020-01-02": "Jan 2nd, 2020",
		"2020-01-03": "Jan 3rd, 2020",
		"2020-01-04": "Jan 4th, 2020",
		"2020-01-11": "Jan 11th, 2020",
		"2020-01-12": "Jan 12th, 2020",
		"2020-01-13": "Jan 13th, 2020",
		"2020-01-21": "Jan 21st, 2020",
		"2020-03-22": "Mar 22nd, 2020",
		"2020-03-23": "Mar 23rd, 2020",
		"2020-12-31": "Dec 31st, 2020",
	}
	for input, want := range tests {
		date, err := time.Parse("2006-01-02", input)
		require.NoError(t, err)
		assert.Equal(t, want, FormatDisplayDate(date), input)
	}
}

func TestParseDateForms(t *testing.T) {
	want := time.Date(2017, 7, 12, 16, 0, 0, 0, time.UTC)
	for _, value := range []any{
		int(want.UnixMilli()),
		int64(want.UnixMilli()),
		float64(want.UnixMilli()),
		"1499875200000",
		"2017-07-12T16:00:00Z",
		"2017-07-12 16:00:00",
		want.In(time.FixedZone("EST", -5*3600)),
	} {
		got, err := parseDate(value)
		require.NoError(t, err, "%#v", value)
		assert.True(t, want.Equal(got), "%#v -> %s", value, got)
	}

	_, err := parseDate(1.5)
	assert.Error(t, err)
	_, err = parseDate(true)
	assert.Error(t, err)
}
