package flashcards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"flashdeck/internal/logging"
	"flashdeck/internal/services"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps user input to a Format. Matching ignores case and
// surrounding whitespace.
func ParseFormat(input string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(input))) {
	case FormatJSON:
		return FormatJSON, true
	case FormatPDF:
		return FormatPDF, true
	default:
		return "", false
	}
}

// File is an encoded export ready for download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// PDF layout in millimetres.
const (
	pdfFontFamily   = "Helvetica"
	pdfFontSize     = 14
	pdfLeft         = 10.0
	pdfFirstLine    = 20.0
	pdfAnswerOffset = 10.0
	pdfPairSpacing  = 20.0
	pdfBottomMargin = 15.0
)

// Encode renders cards in the requested format.
func Encode(cards []Card, format Format) (File, error) {
	switch format {
	case FormatJSON:
		data, err := encodeJSON(cards)
		if err != nil {
			return File{}, err
		}
		return File{Name: "flashcards.json", ContentType: "application/json", Data: data}, nil
	case FormatPDF:
		data, _, err := encodePDF(cards)
		if err != nil {
			return File{}, err
		}
		return File{Name: "flashcards.pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return File{}, services.Wrap(services.ErrValidation, "flashcards", "export", fmt.Sprintf("unsupported export format %q", format), nil)
	}
}

func encodeJSON(cards []Card) ([]byte, error) {
	if cards == nil {
		cards = []Card{}
	}
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return data, nil
}

// encodePDF writes one "Q<n>:" line and one "A<n>:" line per card and
// returns the number of pages used.
func encodePDF(cards []Card) ([]byte, int, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetTitle("Flashcards", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(pdfFontFamily, "", pdfFontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	_, pageHeight := pdf.GetPageSize()
	limit := pageHeight - pdfBottomMargin

	pdf.AddPage()
	slot := 0
	for i, card := range cards {
		q := pdfFirstLine + float64(slot)*pdfPairSpacing
		if slot > 0 && q+pdfAnswerOffset > limit {
			pdf.AddPage()
			slot = 0
			q = pdfFirstLine
		}
		pdf.Text(pdfLeft, q, tr(fmt.Sprintf("Q%d: %s", i+1, card.Question)))
		pdf.Text(pdfLeft, q+pdfAnswerOffset, tr(fmt.Sprintf("A%d: %s", i+1, card.Answer)))
		slot++
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("encode pdf export: %w", err)
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

// Export encodes the rendered cards on board. Unrecognized format input and
// an empty board produce an error notice and no file. When a sink is
// configured the file is archived as well; archive failures are logged only.
func (c *Controller) Export(ctx context.Context, board *Board, input string) (*File, Notice) {
	cards := board.Cards()
	if len(cards) == 0 {
		n := errorNotice(MsgNothingToExport)
		board.setNotice(n)
		return nil, n
	}
	format, ok := ParseFormat(input)
	if !ok {
		n := errorNotice(MsgExportInvalid)
		board.setNotice(n)
		return nil, n
	}

	logger := logging.WithContext(ctx, c.logger)
	file, err := Encode(cards, format)
	if err != nil {
		logging.ErrorWithContext(logger, "export encoding failed", "export_failed",
			logging.Error(err),
			logging.String("format", string(format)),
		)
		n := errorNotice(MsgExportInvalid)
		board.setNotice(n)
		return nil, n
	}

	if c.sink != nil {
		owner, _ := services.SessionIDFromContext(ctx)
		location, err := c.sink.Archive(ctx, owner, file)
		if err != nil {
			logging.WarnWithContext(logger, "export archive failed", "export_archive_failed",
				logging.Error(err),
				logging.String("file", file.Name),
				logging.String(logging.FieldErrorHint, "check exports archive settings"),
			)
		} else {
			logger.Info("export archived", logging.String("location", location))
		}
	}

	n := successNotice(MsgExportedJSON)
	if format == FormatPDF {
		n = successNotice(MsgExportedPDF)
	}
	board.setNotice(n)
	logger.Info("flashcards exported",
		logging.String("format", string(format)),
		logging.Int("cards", len(cards)),
		logging.Int("bytes", len(file.Data)),
	)
	return &file, n
}
