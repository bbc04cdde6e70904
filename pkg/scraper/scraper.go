package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/processor"
)

type ScraperConfig struct {
	BaseURL           string
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Keyword           string // keep only recipes whose title contains it, case-insensitive
	Timeout           time.Duration
	OnProgress        func(url string)
}

// Scraper crawls one site and collects the schema.org Recipe objects
// published in its JSON-LD blocks.
type Scraper struct {
	config   ScraperConfig
	client   *http.Client
	visited  map[string]bool
	seen     map[string]bool
	limiter  *rate.Limiter
	baseHost string
	log      *logrus.Entry
}

func NewWithConfig(config ScraperConfig) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 2
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base url")
	}
	if parsedURL.Host == "" {
		return nil, errors.Errorf("base url %q has no host", config.BaseURL)
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		seen:     make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
		log:      logrus.WithField("component", "scraper").WithField("host", parsedURL.Host),
	}, nil
}

func (s *Scraper) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsedURL.Host != s.baseHost {
		return false
	}

	path := strings.ToLower(parsedURL.Path)
	validExt := false
	for _, allowedExt := range s.config.AllowedExtensions {
		if strings.HasSuffix(path, allowedExt) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

// Scrape crawls from the base URL and returns the recipes found, in discovery order.
func (s *Scraper) Scrape(ctx context.Context) ([]models.RecipeRecord, error) {
	var recipes []models.RecipeRecord
	err := s.scrapeRecursive(ctx, s.config.BaseURL, 0, &recipes)
	return recipes, err
}

func (s *Scraper) scrapeRecursive(ctx context.Context, urlStr string, depth int, recipes *[]models.RecipeRecord) error {
	if depth > s.config.MaxDepth || s.visited[urlStr] {
		return nil
	}

	if !s.shouldProcessURL(urlStr) {
		return nil
	}

	s.visited[urlStr] = true
	if s.config.OnProgress != nil {
		s.config.OnProgress(urlStr)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	for _, r := range ExtractRecipes(doc) {
		if !s.keep(r) {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra["url"] = urlStr
		*recipes = append(*recipes, r)
	}

	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		absoluteURL, err := url.Parse(href)
		if err != nil {
			s.log.WithError(err).Debug("skipping bad link")
			return
		}
		if !absoluteURL.IsAbs() {
			base, err := url.Parse(urlStr)
			if err != nil {
				return
			}
			absoluteURL = base.ResolveReference(absoluteURL)
		}
		absoluteURL.Fragment = ""

		if err := s.scrapeRecursive(ctx, absoluteURL.String(), depth+1, recipes); err != nil {
			s.log.WithError(err).WithField("url", absoluteURL.String()).Warn("error scraping URL")
		}
	})

	return nil
}

// keep applies the keyword filter and drops titles already collected.
func (s *Scraper) keep(r models.RecipeRecord) bool {
	title := strings.ToLower(r.Title)
	if title == "" {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(s.config.Keyword)); kw != "" && !strings.Contains(title, kw) {
		return false
	}
	if s.seen[title] {
		return false
	}
	s.seen[title] = true
	return true
}

// ExtractRecipes reads every schema.org Recipe from the page's
// application/ld+json scripts.
func ExtractRecipes(doc *goquery.Document) []models.RecipeRecord {
	var out []models.RecipeRecord
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(sel.Text()), &raw); err != nil {
			return
		}
		for _, node := range recipeNodes(raw) {
			out = append(out, toRecord(node))
		}
	})
	return out
}

func recipeNodes(v any) []map[string]any {
	switch val := v.(type) {
	case []any:
		var nodes []map[string]any
		for _, item := range val {
			nodes = append(nodes, recipeNodes(item)...)
		}
		return nodes
	case map[string]any:
		if isRecipe(val["@type"]) {
			return []map[string]any{val}
		}
		if graph, ok := val["@graph"]; ok {
			return recipeNodes(graph)
		}
	}
	return nil
}

func isRecipe(t any) bool {
	switch val := t.(type) {
	case string:
		return val == "Recipe"
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func toRecord(node map[string]any) models.RecipeRecord {
	r := models.RecipeRecord{
		Title:        cleanContent(text(node["name"])),
		Ingredients:  strings.Join(texts(node["recipeIngredient"]), processor.ListSeparator),
		Instructions: strings.Join(instructions(node["recipeInstructions"]), " "),
		Description:  cleanContent(text(node["description"])),
	}
	if y := texts(node["recipeYield"]); len(y) > 0 {
		r.Extra = map[string]string{"portions": y[0]}
	}
	r.TextForEmbedding = processor.DeriveEmbeddingText(r)
	return r
}

func instructions(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{cleanContent(val)}
	case []any:
		var steps []string
		for _, item := range val {
			steps = append(steps, instructions(item)...)
		}
		return steps
	case map[string]any:
		// HowToSection nests its steps
		if items, ok := val["itemListElement"]; ok {
			return instructions(items)
		}
		if t := cleanContent(text(val["text"])); t != "" {
			return []string{t}
		}
	}
	return nil
}

func texts(v any) []string {
	switch val := v.(type) {
	case []any:
		var out []string
		for _, item := range val {
			if t := cleanContent(text(item)); t != "" {
				out = append(out, t)
			}
		}
		return out
	default:
		if t := cleanContent(text(v)); t != "" {
			return []string{t}
		}
	}
	return nil
}

func text(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprint(val)
	}
	return ""
}

func cleanContent(content string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(content), " "))
}
