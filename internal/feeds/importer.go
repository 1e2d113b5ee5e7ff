// Package feeds turns RSS and Atom feeds into posts.
package feeds

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"newsdaily-web/internal/posts"
)

const excerptLength = 200

// contentPolicy keeps the formatting of feed items and drops scripts,
// event handlers and non-http links. Feed HTML is rendered unescaped.
var contentPolicy = bluemonday.UGCPolicy()

// PostStore is the part of the post repository the importer writes to.
type PostStore interface {
	All() []posts.Post
	Create(p posts.Post) (posts.Post, error)
}

type Options struct {
	Timeout         time.Duration
	DefaultCategory string
	UserAgent       string
}

type Result struct {
	Feed     string `json:"feed"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

type Importer struct {
	store  PostStore
	parser *gofeed.Parser
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewImporter(store PostStore, opts Options, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: opts.Timeout,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	fp := gofeed.NewParser()
	fp.Client = &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
	if opts.UserAgent != "" {
		fp.UserAgent = opts.UserAgent
	}

	return &Importer{
		store:  store,
		parser: fp,
		opts:   opts,
		logger: logger.Named("feeds"),
		now:    time.Now,
	}
}

// ImportURL fetches the feed at feedURL and imports its items.
func (im *Importer) ImportURL(ctx context.Context, feedURL string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, im.opts.Timeout)
	defer cancel()

	feed, err := im.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return Result{}, errors.Wrapf(err, "fetch feed %s", feedURL)
	}
	return im.importFeed(feed)
}

// ImportString imports a feed document already in memory.
func (im *Importer) ImportString(doc string) (Result, error) {
	feed, err := im.parser.ParseString(doc)
	if err != nil {
		return Result{}, errors.Wrap(err, "parse feed")
	}
	return im.importFeed(feed)
}

// importFeed creates one post per item whose title is not stored yet.
func (im *Importer) importFeed(feed *gofeed.Feed) (Result, error) {
	result := Result{Feed: feed.Title}

	existing := make(map[string]bool)
	for _, p := range im.store.All() {
		existing[p.Title] = true
	}

	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" || existing[title] {
			result.Skipped++
			continue
		}
		if _, err := im.store.Create(im.toPost(feed, item)); err != nil {
			return result, err
		}
		existing[title] = true
		result.Imported++
	}

	im.logger.Info("Feed imported",
		zap.String("feed", feed.Title),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (im *Importer) toPost(feed *gofeed.Feed, item *gofeed.Item) posts.Post {
	p := posts.Post{
		Title:    strings.TrimSpace(item.Title),
		Category: im.opts.DefaultCategory,
		Image:    itemImage(item),
		Excerpt:  truncate(plainText(item.Description), excerptLength),
		Content:  item.Content,
		Author:   feed.Title,
		Date:     im.now(),
	}
	if len(item.Categories) > 0 && strings.TrimSpace(item.Categories[0]) != "" {
		p.Category = strings.TrimSpace(item.Categories[0])
	}
	if p.Content == "" {
		p.Content = item.Description
	}
	p.Content = contentPolicy.Sanitize(p.Content)
	if p.Excerpt == "" {
		p.Excerpt = truncate(plainText(p.Content), excerptLength)
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		p.Author = item.Authors[0].Name
	}
	if item.PublishedParsed != nil {
		p.Date = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		p.Date = *item.UpdatedParsed
	}
	return p
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && webURL(item.Image.URL) {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && webURL(enc.URL) {
			return enc.URL
		}
	}
	return ""
}

// webURL reports whether raw is an absolute http or https URL.
func webURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// plainText strips markup from an HTML fragment.
func plainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
