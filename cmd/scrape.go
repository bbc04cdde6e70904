package main

import (
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/xhad/muffin/pkg/dataset"
	"github.com/xhad/muffin/pkg/scraper"
)

func scrapeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("max-depth") {
		cfg.Scraper.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("rate-limit") {
		cfg.Scraper.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("keyword") {
		cfg.Scraper.Keyword = c.String("keyword")
	}

	spinner := getSpinner(c.App.ErrWriter, "Scraping recipes...")
	pages := 0
	s, err := scraper.NewWithConfig(scraper.ScraperConfig{
		BaseURL:           c.String("url"),
		MaxDepth:          cfg.Scraper.MaxDepth,
		RateLimit:         cfg.Scraper.RateLimit,
		IgnorePatterns:    cfg.Scraper.IgnorePatterns,
		AllowedExtensions: cfg.Scraper.AllowedExtensions,
		Keyword:           cfg.Scraper.Keyword,
		OnProgress: func(url string) {
			pages++
			spinner.Describe(color.CyanString("Scraping recipes... (%d pages)", pages))
			spinner.Add(1) //nolint:errcheck
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize scraper")
	}

	recipes, err := s.Scrape(c.Context)
	spinner.Finish() //nolint:errcheck
	if err != nil {
		return errors.Wrap(err, "failed to scrape recipes")
	}
	if len(recipes) == 0 {
		return errors.Errorf("no recipe found on %s", c.String("url"))
	}

	out := c.String("out")
	if err := dataset.Save(out, recipes); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "\n✓ %d recettes enregistrées dans %s (%d pages)\n", len(recipes), out, pages)
	return nil
}
