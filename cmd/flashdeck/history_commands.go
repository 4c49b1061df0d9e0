package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flashdeck/internal/exportsink"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/history"
	"flashdeck/internal/language"
)

const prefixSearchLimit = 500

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously generated decks",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryExportCommand(ctx))
	historyCmd.AddCommand(newHistoryDeleteCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent decks",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := cliOwner
			if all {
				owner = ""
			}
			return ctx.withHistory(runContext(cmd), func(store *history.Store) error {
				summaries, err := store.List(runContext(cmd), owner, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if summaries == nil {
						summaries = []history.Summary{}
					}
					return writeJSON(cmd, summaries)
				}
				if len(summaries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No decks in history")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSummaries(summaries, all))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include decks generated in the browser")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of decks to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderSummaries(summaries []history.Summary, withOwner bool) string {
	columns := []tableColumn{
		{Header: "ID"},
		{Header: "Created"},
		{Header: "Language"},
		{Header: "Cards", Align: alignRight},
		{Header: "Notes", MaxWidth: 40},
	}
	if withOwner {
		columns = append(columns, tableColumn{Header: "Source"})
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		row := []string{
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			language.DisplayName(s.Language),
			strconv.Itoa(s.CardCount),
			s.Preview,
		}
		if withOwner {
			row = append(row, sourceLabel(s.Owner))
		}
		rows = append(rows, row)
	}
	return renderTable(columns, rows)
}

func sourceLabel(owner string) string {
	switch owner {
	case cliOwner:
		return "terminal"
	case "":
		return "unknown"
	default:
		return "browser"
	}
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the cards of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(runContext(cmd), func(store *history.Store) error {
				deck, err := resolveDeck(runContext(cmd), store, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"id":         deck.ID,
						"language":   deck.Language,
						"notes":      deck.Notes,
						"created_at": deck.CreatedAt,
						"flashcards": deck.Cards,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deck %s (%s, %s)\n", deck.ID, language.DisplayName(deck.Language),
					deck.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintln(out, renderCards(deck.Cards))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outFlag string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored deck as JSON or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger()
			if err != nil {
				return err
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)
			return ctx.withHistory(runCtx, func(store *history.Store) error {
				deck, err := resolveDeck(runCtx, store, args[0])
				if err != nil {
					return err
				}
				opts := []flashcards.Option{flashcards.WithLogger(logger)}
				sink, err := exportsink.FromConfig(runCtx, cfg)
				if err != nil {
					return fmt.Errorf("export archive: %w", err)
				}
				if sink != nil {
					opts = append(opts, flashcards.WithSink(sink))
				}
				controller := flashcards.NewController(flashcards.BackendGenerator{Client: client}, opts...)

				board := flashcards.NewBoard()
				controller.Load(board, *deck)
				file, notice := controller.Export(runCtx, board, formatFlag)
				if file == nil {
					return errors.New(notice.Message)
				}
				location, err := saveExport(runCtx, cfg, *file, outFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Saved to %s\n", notice.Message, location)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", string(flashcards.FormatJSON), "Export format (json or pdf)")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Destination file or directory (defaults to paths.export_dir)")
	return cmd
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a deck from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := runContext(cmd)
			return ctx.withHistory(runCtx, func(store *history.Store) error {
				deck, err := resolveDeck(runCtx, store, args[0])
				if err != nil {
					return err
				}
				removed, err := store.Delete(runCtx, deck.ID)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("deck %s not found", deck.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %s\n", deck.ID)
				return nil
			})
		},
	}
}

// resolveDeck accepts a full deck id or an unambiguous prefix of one.
func resolveDeck(ctx context.Context, store *history.Store, id string) (*flashcards.Deck, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("deck id is required")
	}
	deck, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deck != nil {
		return deck, nil
	}

	summaries, err := store.List(ctx, "", prefixSearchLimit)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, s := range summaries {
		if strings.HasPrefix(s.ID, id) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("deck %s not found", id)
	case 1:
		return store.Get(ctx, matches[0])
	default:
		return nil, fmt.Errorf("deck id %q is ambiguous (%d matches)", id, len(matches))
	}
}
