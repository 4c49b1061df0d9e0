package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"flashdeck/internal/config"
	"flashdeck/internal/exportsink"
	"flashdeck/internal/fileutil"
	"flashdeck/internal/flashcards"
)

const cardColumnWidth = 48

func renderCards(cards []flashcards.Card) string {
	rows := make([][]string, 0, len(cards))
	for i, card := range cards {
		rows = append(rows, []string{strconv.Itoa(i + 1), card.Question, card.Answer})
	}
	return renderTable([]tableColumn{
		{Header: "#", Align: alignRight},
		{Header: "Question", MaxWidth: cardColumnWidth},
		{Header: "Answer", MaxWidth: cardColumnWidth},
	}, rows)
}

// saveExport writes file to out. An empty out uses the configured export
// directory; an existing directory receives the file under its export name
// without overwriting; anything else is treated as the target file path.
func saveExport(ctx context.Context, cfg *config.Config, file flashcards.File, out string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return exportsink.NewDirSink(cfg.Paths.ExportDir).Archive(ctx, cliOwner, file)
	}
	target, err := config.ExpandPath(out)
	if err != nil {
		return "", fmt.Errorf("resolve export path: %w", err)
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return exportsink.NewDirSink(target).Archive(ctx, "", file)
	}
	if err := fileutil.WriteFileAtomic(target, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return target, nil
}
