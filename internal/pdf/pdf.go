// Package pdf turns layout placements into the final document.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-pdf/fpdf"

	"github.com/bowerhall/dossier/internal/layout"
	"github.com/bowerhall/dossier/internal/storage"
)

// Compose renders the placements onto a single A4 page and returns the PDF
// bytes. Image bytes are loaded from store by ref; a mirrored placement is
// drawn reflected around its box's vertical centerline.
func Compose(ctx context.Context, placements []layout.Placement, store storage.Store) ([]byte, error) {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	registered := make(map[string]fpdf.ImageOptions)
	for _, pl := range placements {
		opts, ok := registered[pl.Ref]
		if !ok {
			data, err := store.Load(ctx, pl.Ref)
			if err != nil {
				return nil, fmt.Errorf("load image %s: %w", pl.Ref, err)
			}
			opts = fpdf.ImageOptions{ImageType: imageType(data)}
			doc.RegisterImageOptionsReader(pl.Ref, opts, bytes.NewReader(data))
			registered[pl.Ref] = opts
		}

		if pl.Mirrored {
			doc.TransformBegin()
			doc.TransformMirrorHorizontal(pl.X + pl.W/2)
			doc.ImageOptions(pl.Ref, pl.X, pl.Y, pl.W, pl.H, false, opts, 0, "")
			doc.TransformEnd()
		} else {
			doc.ImageOptions(pl.Ref, pl.X, pl.Y, pl.W, pl.H, false, opts, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func imageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	default:
		return "JPG"
	}
}
