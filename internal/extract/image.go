package extract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// extractImage runs OCR over the whole image. No region selection, no
// confidence filtering; whatever Tesseract reads is the document.
func (d *Dispatcher) extractImage(_ context.Context, up Upload) (Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(up.Data); err != nil {
		return Result{}, fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("ocr image: %w", err)
	}
	return Result{Text: text}, nil
}
