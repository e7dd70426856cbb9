package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rbright/rehearse/internal/bank"
	"github.com/rbright/rehearse/internal/config"
)

func (r Runner) commandCategories(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Warn("question bank unavailable; counting built-ins only", "error", err.Error())
		store = nil
	} else {
		defer func() { _ = store.Close() }()
	}

	b := bank.New(store, nil)
	for _, category := range bank.Categories {
		all, err := b.All(ctx, category)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(r.Stdout, "%-16s %d\n", category, len(all))
	}
	return 0
}

func (r Runner) commandQuestions(ctx context.Context, cfg config.Config, rawCategory string, logger *slog.Logger) int {
	if strings.TrimSpace(rawCategory) == "" {
		rawCategory = cfg.Session.Category
	}
	category, err := bank.ResolveCategory(rawCategory)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	all, err := bank.New(store, nil).All(ctx, category)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(all) == 0 {
		fmt.Fprintf(r.Stdout, "no questions in %s\n", category)
		return 0
	}
	for _, q := range all {
		fmt.Fprintf(r.Stdout, "%s\t[%s]\t%s\n", q.ID, q.Type, q.Text)
	}
	logger.Debug("listed questions", "category", category, "count", len(all))
	return 0
}

func (r Runner) commandAdd(ctx context.Context, cfg config.Config, text string) int {
	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	q, err := store.AddCustom(ctx, bank.CategoryCustom, text, "")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, q.ID)
	return 0
}

func (r Runner) commandRemove(ctx context.Context, cfg config.Config, id string) int {
	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	if err := store.Delete(ctx, strings.TrimSpace(id)); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "removed")
	return 0
}

// commandGenerate asks the model for questions matching a job description
// given as arguments or on stdin, and stores them as custom questions.
func (r Runner) commandGenerate(ctx context.Context, cfg config.Config, text string, logger *slog.Logger) int {
	jd := strings.TrimSpace(text)
	if jd == "" && r.Stdin != nil {
		raw, err := io.ReadAll(r.Stdin)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: read job description: %v\n", err)
			return 1
		}
		jd = strings.TrimSpace(string(raw))
	}
	if jd == "" {
		fmt.Fprintln(r.Stderr, "error: job description must not be empty")
		return 2
	}

	client, err := newGeminiClient(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if client == nil {
		fmt.Fprintf(r.Stderr, "error: set %s to generate questions\n", cfg.Gemini.APIKeyEnv)
		return 1
	}

	drafts, err := client.GenerateQuestions(ctx, jd)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(drafts) == 0 {
		fmt.Fprintln(r.Stderr, "error: no questions generated")
		return 1
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	added, err := store.AddGenerated(ctx, drafts)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for _, q := range added {
		fmt.Fprintf(r.Stdout, "%s\t[%s]\t%s\n", q.ID, q.Type, q.Text)
	}
	logger.Info("generated questions", "count", len(added))
	return 0
}
