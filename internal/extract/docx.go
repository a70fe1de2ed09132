package extract

import (
	"bytes"
	"context"
	"fmt"

	"code.sajari.com/docconv"
)

// extractDocx returns the full plain-text body of an office document,
// formatting discarded.
func (d *Dispatcher) extractDocx(_ context.Context, up Upload) (Result, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(up.Data))
	if err != nil {
		return Result{}, fmt.Errorf("convert docx: %w", err)
	}
	return Result{Text: text}, nil
}
