package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zombor/receipt-scan/internal/scanning"
)

// Media types offered for one export
const (
	MediaPlain  = "text/plain"
	MediaStyled = "text/html"
)

// Clipboard is a destination that can take alternate representations of the
// same content in one write
type Clipboard interface {
	// Write places every representation at once, keyed by media type
	Write(ctx context.Context, items map[string]string) error
	// WriteText places plain text only
	WriteText(ctx context.Context, text string) error
}

// ClipboardError is returned when neither the combined write nor the plain
// fallback succeeded
type ClipboardError struct {
	Combined error
	Plain    error
}

func (e *ClipboardError) Error() string {
	return fmt.Sprintf("writing to clipboard: %v (plain text fallback: %v)", e.Combined, e.Plain)
}

func (e *ClipboardError) Unwrap() []error {
	return []error{e.Combined, e.Plain}
}

// Items returns both representations of t keyed by media type
func Items(t Table) (map[string]string, error) {
	html, err := t.HTML()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		MediaPlain:  t.TSV(),
		MediaStyled: html,
	}, nil
}

// Copy places records on dst as plain and styled text in one write. When the
// destination rejects that, the plain text is written alone, once. Copying
// no records does nothing.
func Copy(ctx context.Context, dst Clipboard, records []*scanning.ReceiptData) error {
	if len(records) == 0 {
		return nil
	}

	t := Derive(records)
	items, err := Items(t)
	if err != nil {
		return err
	}

	combinedErr := dst.Write(ctx, items)
	if combinedErr == nil {
		slog.Info("Copied table", "rows", len(t.Rows), "highlights", true)
		return nil
	}

	slog.Warn("Styled copy rejected, falling back to plain text", "error", combinedErr)
	if err := dst.WriteText(ctx, items[MediaPlain]); err != nil {
		return &ClipboardError{Combined: combinedErr, Plain: err}
	}
	slog.Info("Copied table", "rows", len(t.Rows), "highlights", false)
	return nil
}

// ErrNoStyledWriter is returned by WriterClipboard when it has nowhere to put
// the styled representation
var ErrNoStyledWriter = errors.New("no destination for styled output")

// WriterClipboard places exports on plain writers: the plain text on Plain
// and the HTML on Styled.
type WriterClipboard struct {
	Plain  io.Writer
	Styled io.Writer
}

// Write writes the styled representation first so a failure leaves Plain
// untouched for the fallback. It fails when Styled is nil.
func (w WriterClipboard) Write(ctx context.Context, items map[string]string) error {
	if w.Styled == nil {
		return ErrNoStyledWriter
	}
	if _, err := io.WriteString(w.Styled, items[MediaStyled]); err != nil {
		return fmt.Errorf("writing styled output: %w", err)
	}
	return w.WriteText(ctx, items[MediaPlain])
}

// WriteText writes text and a trailing newline to Plain
func (w WriterClipboard) WriteText(_ context.Context, text string) error {
	if _, err := io.WriteString(w.Plain, text+"\n"); err != nil {
		return fmt.Errorf("writing plain output: %w", err)
	}
	return nil
}
