package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lesnouvelles-feed/internal/app"
	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/infra/worker"
	"lesnouvelles-feed/internal/usecase/prompt"
)

// newPromptService opens the store behind the prompt commands. The returned
// func releases it.
var newPromptService = func(ctx context.Context) (*prompt.Service, func(), error) {
	database, err := openDatabase(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	prompts, articles := app.Repositories(database)
	svc := &prompt.Service{
		Prompts:   prompts,
		Articles:  articles,
		Threshold: worker.LoadConfigFromEnv(logger, nil).ScoreThreshold,
	}
	return svc, func() { _ = database.Close() }, nil
}

// withPrompts runs fn against the prompt service.
func withPrompts(cmd *cobra.Command, fn func(*prompt.Service) error) error {
	svc, release, err := newPromptService(cmd.Context())
	if err != nil {
		return err
	}
	defer release()
	return fn(svc)
}

type promptView struct {
	ID           string                `json:"id"`
	Text         string                `json:"text"`
	TextImproved string                `json:"text_improved,omitempty"`
	Settings     entity.PromptSettings `json:"settings"`
	Enabled      bool                  `json:"enabled"`
	Enriched     bool                  `json:"enriched"`
	Tags         []entity.Tag          `json:"tags"`
	RetryCount   int                   `json:"retry_count"`
	FeedLength   int                   `json:"feed_length"`
	LastUsedAt   time.Time             `json:"last_used_at"`
	CreatedAt    time.Time             `json:"created_at"`
}

type feedItemView struct {
	ArticleID     string    `json:"article_id"`
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	Source        string    `json:"source"`
	PublishedAt   time.Time `json:"published_at"`
	FrontpageRank int       `json:"frontpage_rank,omitempty"`
	Score         float64   `json:"score"`
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Create, edit and read prompts",
}

var promptCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a prompt and print its id and key",
	Long: `Create a prompt and print its id and key. Keep the key: every later
edit requires it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		settings, err := settingsFromFlags(cmd)
		if err != nil {
			return err
		}
		return withPrompts(cmd, func(svc *prompt.Service) error {
			p, err := svc.Create(cmd.Context(), text, settings)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"id": p.ID, "key": p.Key})
		})
	},
}

var promptEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Replace the text of a prompt",
	Long: `Replace the text of a prompt. Its tags, embedding and feed are cleared
and rebuilt by the next enrich and score passes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		text, _ := cmd.Flags().GetString("text")
		return withPrompts(cmd, func(svc *prompt.Service) error {
			return svc.EditText(cmd.Context(), args[0], key, text)
		})
	},
}

var promptSettingsCmd = &cobra.Command{
	Use:   "settings <id>",
	Short: "Replace the scoring filters of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		settings, err := settingsFromFlags(cmd)
		if err != nil {
			return err
		}
		return withPrompts(cmd, func(svc *prompt.Service) error {
			return svc.EditSettings(cmd.Context(), args[0], key, settings)
		})
	},
}

func enableCommand(use string, enabled bool) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("Set enabled=%t on a prompt", enabled),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetString("key")
			return withPrompts(cmd, func(svc *prompt.Service) error {
				return svc.SetEnabled(cmd.Context(), args[0], key, enabled)
			})
		},
	}
	c.Flags().String("key", "", "prompt key")
	_ = c.MarkFlagRequired("key")
	return c
}

var promptShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrompts(cmd, func(svc *prompt.Service) error {
			p, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, promptView{
				ID:           p.ID,
				Text:         p.Text,
				TextImproved: p.TextImproved,
				Settings:     p.Settings,
				Enabled:      p.Enabled,
				Enriched:     p.IsEnriched(),
				Tags:         p.Tags,
				RetryCount:   p.RetryCount,
				FeedLength:   len(p.Feed),
				LastUsedAt:   p.LastUsedAt,
				CreatedAt:    p.CreatedAt,
			})
		})
	},
}

var promptFeedCmd = &cobra.Command{
	Use:   "feed <id>",
	Short: "Print the stored feed of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrompts(cmd, func(svc *prompt.Service) error {
			entries, err := svc.Feed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items := make([]feedItemView, 0, len(entries))
			for _, e := range entries {
				items = append(items, feedItemView{
					ArticleID:     e.Article.ID,
					Title:         e.Article.Title,
					Link:          e.Article.Link,
					Source:        e.Article.Source,
					PublishedAt:   e.Article.PublishedAt,
					FrontpageRank: e.Article.FrontpageRank,
					Score:         e.Score,
				})
			}
			return printJSON(cmd, items)
		})
	},
}

var promptSearchCmd = &cobra.Command{
	Use:   "search <id>",
	Short: "Score a prompt against the current articles without storing the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrompts(cmd, func(svc *prompt.Service) error {
			entries, err := svc.Search(cmd.Context(), args[0])
			if errors.Is(err, prompt.ErrNotScorable) {
				return fmt.Errorf("%w: run 'lnqctl run enrich' first", err)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, entries)
		})
	},
}

// settingsFromFlags builds settings from the filter flags. The threshold
// is only set when the flag was given.
func settingsFromFlags(cmd *cobra.Command) (entity.PromptSettings, error) {
	var s entity.PromptSettings
	var err error
	if s.Categories, err = cmd.Flags().GetStringSlice("category"); err != nil {
		return s, err
	}
	if s.Sources, err = cmd.Flags().GetStringSlice("source"); err != nil {
		return s, err
	}
	if s.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return s, err
	}
	if cmd.Flags().Changed("threshold") {
		t, err := cmd.Flags().GetFloat64("threshold")
		if err != nil {
			return s, err
		}
		s.Threshold = &t
	}
	return s, nil
}

func addSettingsFlags(c *cobra.Command) {
	c.Flags().StringSlice("category", nil, "only score articles of these categories")
	c.Flags().StringSlice("source", nil, "only score articles of these sources")
	c.Flags().Float64("threshold", 0, "relevance threshold (default $SCORE_THRESHOLD)")
	c.Flags().Int("limit", 0, "maximum feed length, 0 for unlimited")
}

func init() {
	promptCreateCmd.Flags().String("text", "", "prompt text")
	_ = promptCreateCmd.MarkFlagRequired("text")
	addSettingsFlags(promptCreateCmd)

	promptEditCmd.Flags().String("key", "", "prompt key")
	promptEditCmd.Flags().String("text", "", "new prompt text")
	_ = promptEditCmd.MarkFlagRequired("key")
	_ = promptEditCmd.MarkFlagRequired("text")

	promptSettingsCmd.Flags().String("key", "", "prompt key")
	_ = promptSettingsCmd.MarkFlagRequired("key")
	addSettingsFlags(promptSettingsCmd)

	promptCmd.AddCommand(
		promptCreateCmd,
		promptEditCmd,
		promptSettingsCmd,
		enableCommand("enable", true),
		enableCommand("disable", false),
		promptShowCmd,
		promptFeedCmd,
		promptSearchCmd,
	)
	rootCmd.AddCommand(promptCmd)
}
