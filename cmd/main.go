package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "cheffe-muffin",
		Usage: "La Cheffe Muffin trouve la recette de muffins qu'il vous faut",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "Path to the JSON recipe dataset",
			},
			&cli.StringFlag{
				Name:  "embedder",
				Usage: "Embedding provider (ollama, openai, mistral, tfidf)",
			},
			&cli.StringFlag{
				Name:  "index-backend",
				Usage: "Vector index backend (memory, pgvector)",
			},
			&cli.StringFlag{
				Name:  "llm-provider",
				Usage: "Generation provider (mistral, openai, ollama)",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key for the generation provider",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web interface",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Chat with the Cheffe in the terminal",
				Action: chatCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question and print the answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:   "scrape",
				Usage:  "Build a recipe dataset from a website",
				Action: scrapeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Site to crawl",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output dataset file",
						Value:   "base_de_donnees.json",
					},
					&cli.StringFlag{
						Name:  "keyword",
						Usage: "Keep only recipes whose title contains this word",
					},
					&cli.IntFlag{
						Name:  "max-depth",
						Usage: "Maximum link depth",
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Requests per second",
					},
				},
			},
		},
	}
}

func setup(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env file")
	}

	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
