package extract

import (
	"context"
	"unicode/utf8"

	"docuchat/internal/models"
)

// extractText decodes the raw bytes as UTF-8. Malformed sequences are a
// caller-visible failure rather than being silently replaced.
func (d *Dispatcher) extractText(_ context.Context, up Upload) (Result, error) {
	if !utf8.Valid(up.Data) {
		return Result{}, models.ErrInvalidText
	}
	return Result{Text: string(up.Data)}, nil
}
