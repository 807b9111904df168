package html

import (
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Cleaner implements the interface.
var _ driven.PageCleaner = (*Cleaner)(nil)

var (
	tagPattern   = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^<>]*)?/?>`)
	tablePattern = regexp.MustCompile(`(?i)<table[\s>]`)

	// Markdown escapes added by the converter. Pipes are left escaped
	// since they delimit table cells.
	escapedChar = regexp.MustCompile("\\\\([\\\\`*_{}\\[\\]()#+\\-.!<>~])")
)

// Cleaner converts leaked HTML in text blocks into markdown.
type Cleaner struct {
	md     *converter.Converter
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

// New creates a new HTML cleaner.
func New() *Cleaner {
	return &Cleaner{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

// Clean rewrites every block that contains markup. Tables found in a
// block move to the page's raw tables; the remaining text stays in place.
func (c *Cleaner) Clean(page *domain.RawPageOutput) error {
	blocks := page.Blocks[:0]
	for _, blk := range page.Blocks {
		if !tagPattern.MatchString(blk.Text) {
			blocks = append(blocks, blk)
			continue
		}

		text, tables := c.convert(blk.Text)
		if len(tables) > 0 {
			logger.Debug("page %d: recovered %d HTML table(s)", page.Page, len(tables))
			page.Tables = append(page.Tables, tables...)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		blk.Text = text
		blocks = append(blocks, blk)
	}
	page.Blocks = blocks
	return nil
}

// convert turns an HTML fragment into markdown text plus pipe tables.
// When conversion fails the fragment is reduced to plain text.
func (c *Cleaner) convert(fragment string) (string, []domain.RawTable) {
	safe := c.ugc.Sanitize(fragment)

	md, err := c.md.ConvertString(safe)
	if err != nil {
		logger.Debug("html conversion failed, stripping tags: %v", err)
		return c.stripTags(fragment), nil
	}

	var (
		text   []string
		tables []domain.RawTable
		rows   []string
	)
	flush := func() {
		if len(rows) > 0 {
			tables = append(tables, domain.RawTable{Rows: rows})
			rows = nil
		}
	}

	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "|") && tablePattern.MatchString(fragment) {
			rows = append(rows, line)
			continue
		}
		flush()
		line = escapedChar.ReplaceAllString(line, "$1")
		if line != "" || (len(text) > 0 && text[len(text)-1] != "") {
			text = append(text, line)
		}
	}
	flush()

	return strings.TrimSpace(strings.Join(text, "\n")), tables
}

// stripTags removes all markup and decodes entities.
func (c *Cleaner) stripTags(fragment string) string {
	return strings.TrimSpace(stdhtml.UnescapeString(c.strict.Sanitize(fragment)))
}
