package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/metrics"
	"github.com/xhad/muffin/pkg/rag"
	"github.com/xhad/muffin/server"
)

func chatCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	chef, err := newChef(c.Context, cfg, metrics.NewNoopMetrics(), indexProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}
	defer chef.Index.Close()

	out := c.App.Writer
	color.New(color.FgMagenta, color.Bold).Fprintln(out, "\n"+cfg.UI.Title)
	fmt.Fprintln(out, server.WelcomeMessage)
	color.New(color.FgCyan).Fprintln(out, "(tapez 'exit' pour quitter)")

	scanner := bufio.NewScanner(c.App.Reader)
	userPrompt := color.New(color.FgGreen)

	for {
		userPrompt.Fprint(out, "\nQuelle envie avez-vous aujourd'hui ? ")
		if !scanner.Scan() {
			break
		}

		query := scanner.Text()
		switch strings.ToLower(strings.TrimSpace(query)) {
		case "exit", "quit":
			return nil
		}

		if err := ask(c.Context, out, c.App.ErrWriter, chef, query, ""); err != nil {
			color.New(color.FgRed).Fprintf(out, "Erreur : %v\n", err)
		}
	}
	return scanner.Err()
}

func askCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return cli.Exit(server.EmptyQueryMessage, 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	chef, err := newChef(c.Context, cfg, metrics.NewNoopMetrics(), indexProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}
	defer chef.Index.Close()

	return ask(c.Context, c.App.Writer, c.App.ErrWriter, chef, query, "")
}

// ask runs one question and prints the answer and its sources.
func ask(ctx context.Context, out, status io.Writer, chef *rag.Chef, query, apiKey string) error {
	spinner := getSpinner(status, server.SearchingMessage)
	answer, err := chef.Ask(ctx, query, apiKey)
	spinner.Finish() //nolint:errcheck
	fmt.Fprint(status, "\r")

	if errors.Is(err, rag.ErrEmptyQuery) {
		color.New(color.FgYellow).Fprintln(out, server.EmptyQueryMessage)
		return nil
	}
	if err != nil {
		return err
	}

	printAnswer(out, answer)
	return nil
}

func printAnswer(out io.Writer, answer *models.Answer) {
	color.New(color.FgCyan).Fprintf(out, "\n👩🏼‍🍳 %s\n", answer.Text)
	if len(answer.Sources) == 0 {
		return
	}
	color.New(color.Faint).Fprintln(out, "\n🔍 Vérifier les sources du grimoire")
	for _, title := range answer.SourceTitles() {
		fmt.Fprintf(out, "  📖 %s\n", title)
	}
}
