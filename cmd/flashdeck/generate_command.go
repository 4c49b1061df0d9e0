package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"flashdeck/internal/auth"
	"flashdeck/internal/config"
	"flashdeck/internal/exportsink"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/history"
	"flashdeck/internal/language"
	"flashdeck/internal/notifications"
	"flashdeck/internal/services"
)

var errNotSignedIn = errors.New("not signed in; run `flashdeck login` first")

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var notesFlag string
	var fileFlag string
	var languageFlag string
	var exportFlag string
	var outFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate flashcards from study notes",
		Long: "Send notes to the flashcard backend and print the resulting cards.\n" +
			"Use --file - to read notes from stdin. Successful decks are saved to history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := readNotes(cmd.InOrStdin(), notesFlag, fileFlag)
			if err != nil {
				return err
			}
			if languageFlag != "" {
				if _, ok := language.Normalize(languageFlag); !ok {
					return fmt.Errorf("unsupported language %q", languageFlag)
				}
			}
			var format flashcards.Format
			if exportFlag != "" {
				parsed, ok := flashcards.ParseFormat(exportFlag)
				if !ok {
					return fmt.Errorf("unsupported export format %q (use json or pdf)", exportFlag)
				}
				format = parsed
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger()
			if err != nil {
				return err
			}
			sessions, err := ctx.sessions()
			if err != nil {
				return err
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)

			guard := auth.NewGuard(client, auth.WithLogger(logger))
			outcome, err := guard.Bootstrap(runCtx, sessions)
			if err != nil {
				return err
			}
			if !outcome.Authenticated {
				return errNotSignedIn
			}

			return ctx.withHistory(runCtx, func(store *history.Store) error {
				opts := []flashcards.Option{
					flashcards.WithRecorder(store),
					flashcards.WithNotifier(notifications.NewService(cfg)),
					flashcards.WithLogger(logger),
				}
				sink, err := exportsink.FromConfig(runCtx, cfg)
				if err != nil {
					return fmt.Errorf("export archive: %w", err)
				}
				if sink != nil {
					opts = append(opts, flashcards.WithSink(sink))
				}
				controller := flashcards.NewController(flashcards.BackendGenerator{Client: client}, opts...)

				board := flashcards.NewBoard()
				if err := controller.Generate(runCtx, board, notes, languageFlag); err != nil {
					if errors.Is(err, services.ErrUnauthorized) {
						if _, clearErr := guard.HandleAuthError(runCtx, sessions, err); clearErr != nil {
							return clearErr
						}
						return errors.New("session rejected by the backend; run `flashdeck login` again")
					}
					return err
				}

				notice := board.TakeNotice()
				cards := board.Cards()
				if notice.Kind == flashcards.NoticeError {
					if len(cards) > 0 {
						fmt.Fprintln(cmd.ErrOrStderr(), notice.Message)
						fmt.Fprintln(cmd.OutOrStdout(), renderCards(cards))
					}
					return errors.New(notice.Message)
				}

				if jsonOutput {
					if err := writeJSON(cmd, map[string]any{
						"language":   board.Language(),
						"flashcards": cards,
					}); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), renderCards(cards))
					fmt.Fprintln(cmd.OutOrStdout(), notice.Message)
				}

				if format == "" {
					return nil
				}
				file, exportNotice := controller.Export(runCtx, board, string(format))
				if file == nil {
					return errors.New(exportNotice.Message)
				}
				location, err := saveExport(runCtx, cfg, *file, outFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s Saved to %s\n", exportNotice.Message, location)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&notesFlag, "notes", "n", "", "Study notes text")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read notes from a file (- for stdin)")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Study language (ISO 639-1 code or name)")
	cmd.Flags().StringVar(&exportFlag, "export", "", "Also export the deck (json or pdf)")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Export destination file or directory (defaults to paths.export_dir)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print cards as JSON")
	cmd.MarkFlagsMutuallyExclusive("notes", "file")
	return cmd
}

func readNotes(stdin io.Reader, notes, file string) (string, error) {
	switch strings.TrimSpace(file) {
	case "":
		return notes, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read notes from stdin: %w", err)
		}
		return string(data), nil
	default:
		path, err := config.ExpandPath(file)
		if err != nil {
			return "", fmt.Errorf("resolve notes path: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read notes: %w", err)
		}
		return string(data), nil
	}
}
