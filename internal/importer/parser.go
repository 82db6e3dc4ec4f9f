package importer

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lotas/tabtab/internal/export"
	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/types"
)

// GoogleFavicons is the default favicon lookup service.
const GoogleFavicons = "https://www.google.com/s2/favicons?domain="

// Options supplies the clock, randomness and favicon lookup used while
// parsing. Zero fields fall back to time.Now, math/rand and GoogleFavicons.
type Options struct {
	Now     func() time.Time
	Intn    func(n int) int
	Favicon func(host string) string
}

// FaviconService returns a favicon lookup that appends the host to base.
func FaviconService(base string) func(host string) string {
	return func(host string) string {
		return base + host
	}
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Intn == nil {
		o.Intn = rand.IntN
	}
	if o.Favicon == nil {
		o.Favicon = FaviconService(GoogleFavicons)
	}
	return o
}

// groupIDSpread bounds the random suffix of generated group ids.
const groupIDSpread = 10000

var headerRe = regexp.MustCompile(`^== (.*?) \((\d+) tabs?\) ==$`)

// Layouts tried before falling back to dateparse.
var headerDateLayouts = []string{
	export.GroupDateLayout,
	"January 2, 2006",
	"Mon, January 2, 2006",
	"Monday, 2 January 2006",
	"2006-01-02",
}

type state int

const (
	// awaitingGroupOrPair: the current line may be a group header or the
	// title of a title/URL pair.
	awaitingGroupOrPair state = iota
	// consumedURLLine: the current line is the URL of the pair just read.
	consumedURLLine
)

type parser struct {
	opts      Options
	now       time.Time
	groupID   string
	groupDate int64
	tabs      []types.SavedTab
}

// Parse reads an export document into saved-tab records. It never fails:
// lines that are neither a group header nor the title of a title/URL pair
// are skipped, so malformed input yields no records. A blank line is never
// a title, so a title that is itself a URL still pairs with the line after it.
//
// Each header starts a new group with a generated id; tabs before the first
// header share a group dated now.
func Parse(text string, opts Options) []types.SavedTab {
	opts = opts.withDefaults()
	p := &parser{opts: opts, now: opts.Now()}

	lines := strings.Split(text, "\n")
	st := awaitingGroupOrPair
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		switch st {
		case consumedURLLine:
			st = awaitingGroupOrPair

		case awaitingGroupOrPair:
			if m := headerRe.FindStringSubmatch(line); m != nil {
				p.startGroup(p.headerDate(m[1]))
				continue
			}
			if line == "" || i+1 >= len(lines) {
				continue
			}
			next := strings.TrimSpace(lines[i+1])
			if isURLLine(next) {
				p.addPair(line, next)
				st = consumedURLLine
			}
		}
	}
	return p.tabs
}

func isURLLine(line string) bool {
	return strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://")
}

func (p *parser) startGroup(date time.Time) {
	p.groupDate = date.UnixMilli()
	p.groupID = fmt.Sprintf("import-group-%d-%d", p.groupDate, p.opts.Intn(groupIDSpread))
}

func (p *parser) addPair(title, url string) {
	if p.groupID == "" {
		p.startGroup(p.now)
	}
	favicon := ""
	if host := grouping.Host(url); host != grouping.OtherHost && host != "" {
		favicon = p.opts.Favicon(host)
	}
	p.tabs = append(p.tabs, types.SavedTab{
		Title:   title,
		URL:     url,
		Favicon: favicon,
		Date:    p.groupDate,
		GroupID: p.groupID,
	})
}

// headerDate parses the date text of a group header, or returns now.
func (p *parser) headerDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return p.now
	}
	for _, layout := range headerDateLayouts {
		if t, err := time.ParseInLocation(layout, text, time.Local); err == nil {
			return t
		}
	}
	if t, ok := parseLoose(text); ok {
		return t
	}
	return p.now
}

func parseLoose(text string) (t time.Time, ok bool) {
	// dateparse can panic on some odd inputs; a header is never fatal.
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	t, err := dateparse.ParseIn(text, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
