// Package content turns an archived status into Markdown with YAML front
// matter: HTML conversion, title and description extraction, tag rewriting,
// and the link back to the original post.
package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/clipperhouse/uax29/sentences"
	"github.com/clipperhouse/uax29/words"
	yaml "github.com/goccy/go-yaml"

	"github.com/tootvault/tootvault/internal/apperr"
	"github.com/tootvault/tootvault/internal/models"
)

// ellipsis terminates derived titles and descriptions.
const ellipsis = "…"

// Defaults for the title and description budgets.
const (
	defaultTitleWords           = 10
	defaultDescriptionSentences = 2
)

var (
	trailingSpaceRe = regexp.MustCompile(`(?m)[ \t]+$`)
	hashtagLinkRe   = regexp.MustCompile(`\[\\?#[^\]]*\]\([^)]*\)`)
	multiNewlineRe  = regexp.MustCompile(`\n{3,}`)
	multiSpaceRe    = regexp.MustCompile(` {2,}`)
)

// TagReplacer rewrites a tag list before it lands in front matter.
type TagReplacer interface {
	ReplaceTags(tags []string) ([]string, error)
}

// frontMatter is the metadata block embedded at the top of each derived
// Markdown document. It is never persisted on its own.
type frontMatter struct {
	Date        string   `yaml:"date"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	TootURL     string   `yaml:"toot_url"`
	Categories  []string `yaml:"categories"`
	Tags        []string `yaml:"tags"`
}

// Option configures a Creator.
type Option func(*Creator)

// WithTagReplacer applies a tag mapping during front matter generation.
func WithTagReplacer(r TagReplacer) Option {
	return func(c *Creator) { c.replacer = r }
}

// WithTitleWords overrides the number of words taken for the title.
func WithTitleWords(n int) Option {
	return func(c *Creator) { c.titleWords = n }
}

// WithDescriptionSentences overrides the number of sentences taken for the
// description.
func WithDescriptionSentences(n int) Option {
	return func(c *Creator) { c.descSentences = n }
}

// Creator derives Markdown documents from statuses. The conversion of a
// status body is cached per status id because both the title and the
// description are cut from the same converted text.
type Creator struct {
	conv          *converter.Converter
	replacer      TagReplacer
	titleWords    int
	descSentences int
	cache         map[string]string
}

// NewCreator builds a Creator with the given options.
func NewCreator(opts ...Option) *Creator {
	c := &Creator{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		titleWords:    defaultTitleWords,
		descSentences: defaultDescriptionSentences,
		cache:         make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertContent converts status HTML to Markdown. Hashtag links embedded in
// the body by the server are redundant copies of the status tags and are
// stripped, as is trailing whitespace on every line.
func (c *Creator) ConvertContent(htmlContent string) (string, error) {
	if htmlContent == "" {
		return "", fmt.Errorf("content: html content must not be empty: %w", apperr.ErrInvalidInput)
	}
	md, err := c.conv.ConvertString(htmlContent)
	if err != nil {
		return "", fmt.Errorf("content: convert html: %w", err)
	}
	md = hashtagLinkRe.ReplaceAllString(md, "")
	md = trailingSpaceRe.ReplaceAllString(md, "")
	return md, nil
}

// MarkdownContent returns the converted body of a status, collapsing runs of
// three or more newlines to a single blank line. Results are memoized per
// status id.
func (c *Creator) MarkdownContent(status *models.Status) (string, error) {
	if status.ID == "" {
		return "", fmt.Errorf("content: status id must not be empty: %w", apperr.ErrInvalidInput)
	}
	if status.Content == "" {
		return "", fmt.Errorf("content: status %s has no content: %w", status.ID, apperr.ErrInvalidInput)
	}
	if cached, ok := c.cache[status.ID]; ok {
		return cached, nil
	}

	md, err := c.ConvertContent(status.Content)
	if err != nil {
		return "", err
	}
	md = multiNewlineRe.ReplaceAllString(md, "\n\n")
	md = strings.TrimRight(md, "\n")

	c.cache[status.ID] = md
	return md, nil
}

// Title cuts the first words of the content into a post title. Counting uses
// UAX #29 word segmentation, so contractions stay whole; punctuation between
// counted words is carried along until the budget is spent.
func (c *Creator) Title(markdownContent string) string {
	normalized := normalizeSpace(markdownContent)

	var sb strings.Builder
	wordCount := 0

	seg := words.NewSegmenter([]byte(normalized))
	for seg.Next() {
		if wordCount == c.titleWords {
			break
		}
		sb.Write(seg.Bytes())
		if isWordLike(seg.Bytes()) {
			wordCount++
		}
	}

	return strings.TrimRight(sb.String(), " ") + ellipsis
}

// Description cuts the first sentences of the content into a post
// description. The final sentence's terminal punctuation is replaced by the
// ellipsis.
func (c *Creator) Description(markdownContent string) string {
	normalized := normalizeSpace(markdownContent)

	var sb strings.Builder
	sentenceCount := 0

	seg := sentences.NewSegmenter([]byte(normalized))
	for seg.Next() {
		if sentenceCount == c.descSentences {
			break
		}
		sb.Write(seg.Bytes())
		sentenceCount++
	}

	out := strings.TrimSpace(sb.String())
	if out != "" {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	return out + ellipsis
}

// FrontMatter builds the YAML metadata block for a status. Categories are
// passed through verbatim; tags are taken from the status and run through
// the configured replacer, when there is one.
func (c *Creator) FrontMatter(status *models.Status, categories []string) (string, error) {
	if status.CreatedAt == "" {
		return "", fmt.Errorf("content: status %s has no creation time: %w", status.ID, apperr.ErrInvalidInput)
	}
	if status.URL == "" {
		return "", fmt.Errorf("content: status %s has no url: %w", status.ID, apperr.ErrInvalidInput)
	}

	md, err := c.MarkdownContent(status)
	if err != nil {
		return "", err
	}

	tags := make([]string, 0, len(status.Tags))
	for _, tag := range status.Tags {
		tags = append(tags, tag.Name)
	}
	if c.replacer != nil {
		tags, err = c.replacer.ReplaceTags(tags)
		if err != nil {
			return "", err
		}
	}

	if categories == nil {
		categories = []string{}
	}

	fm := frontMatter{
		Date:        status.CreatedAt,
		Title:       c.Title(md),
		Description: c.Description(md),
		TootURL:     status.URL,
		Categories:  categories,
		Tags:        tags,
	}

	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("content: encode front matter: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// LinkBack returns the Markdown line linking a derived post to the original.
func (c *Creator) LinkBack(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return "", fmt.Errorf("content: link-back url %q must be absolute: %w", rawURL, apperr.ErrInvalidInput)
	}
	return fmt.Sprintf("[Original post on the Fediverse](%s)", u.String()), nil
}

// Document assembles the full derived file: front matter between ---
// delimiters, the Markdown body, and the link-back line.
func (c *Creator) Document(status *models.Status, categories []string) (string, error) {
	fm, err := c.FrontMatter(status, categories)
	if err != nil {
		return "", err
	}
	body, err := c.MarkdownContent(status)
	if err != nil {
		return "", err
	}
	linkBack, err := c.LinkBack(status.URL)
	if err != nil {
		return "", err
	}

	parts := []string{
		"---",
		fm,
		"---",
		"",
		body,
		"",
		linkBack,
		"",
	}
	return strings.Join(parts, "\n"), nil
}

// normalizeSpace flattens newlines and runs of spaces to single spaces so
// segmentation sees one continuous line of text.
func normalizeSpace(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// isWordLike reports whether a segment counts against the word budget: it
// does when it contains at least one letter or digit.
func isWordLike(segment []byte) bool {
	for _, r := range string(segment) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
