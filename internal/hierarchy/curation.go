package hierarchy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CurationEntry is one hand-curated placement: the section titled Title
// sits under the section titled ParentTitle at the given level.
type CurationEntry struct {
	Title       string
	ParentTitle string
	Level       int
}

// Curation maps section titles to curated parents.
type Curation struct {
	entries map[string]CurationEntry
}

// LoadCuration reads pipe-delimited "title|parent_title|level" lines. Level
// defaults to 1; level 1 entries are top-level whatever their parent column
// says. Blank lines and lines starting with # are ignored.
func LoadCuration(r io.Reader) (*Curation, error) {
	reader := csv.NewReader(r)
	reader.Comma = '|'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	c := &Curation{entries: make(map[string]CurationEntry)}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read curation: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(rec) < 2 {
			return nil, fmt.Errorf("curation line %d: expected title|parent_title[|level]", line)
		}
		e := CurationEntry{
			Title:       strings.TrimSpace(rec[0]),
			ParentTitle: strings.TrimSpace(rec[1]),
			Level:       1,
		}
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			lvl, err := strconv.Atoi(strings.TrimSpace(rec[2]))
			if err != nil || lvl < 1 {
				return nil, fmt.Errorf("curation line %d: bad level %q", line, rec[2])
			}
			e.Level = lvl
		}
		if e.Title == "" {
			return nil, fmt.Errorf("curation line %d: empty title", line)
		}
		if e.Level <= 1 {
			e.ParentTitle = ""
		}
		c.entries[TitleKey(e.Title)] = e
	}
	return c, nil
}

// Lookup returns the curated placement for a title.
func (c *Curation) Lookup(title string) (CurationEntry, bool) {
	if c == nil {
		return CurationEntry{}, false
	}
	e, ok := c.entries[TitleKey(title)]
	return e, ok
}

// Len returns the number of curated titles.
func (c *Curation) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// TitleKey normalizes a title for matching: NFC form, runs of whitespace
// collapsed to one space.
func TitleKey(title string) string {
	return norm.NFC.String(strings.Join(strings.Fields(title), " "))
}
