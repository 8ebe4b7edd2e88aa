// Package chunker slices a source document into the units the extraction
// pipeline processes one model call at a time: rune windows for text, pages
// for PDFs, the whole payload for images.
package chunker

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultChunkSize is the text window size in runes.
const DefaultChunkSize = 3000

// Kind discriminates the source format.
type Kind string

const (
	KindText  Kind = "text"
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// Source is one ingested document ready for chunking. TotalUnits is runes
// for text, pages for PDF, and 1 for an image.
type Source struct {
	Kind       Kind
	FileName   string
	Mime       string
	Runes      []rune
	Raw        []byte
	TotalUnits int
}

// NewTextSource wraps plain text.
func NewTextSource(fileName, text string) Source {
	runes := []rune(text)
	return Source{Kind: KindText, FileName: fileName, Runes: runes, TotalUnits: len(runes)}
}

// NewPDFSource wraps a PDF payload with a known page count.
func NewPDFSource(fileName string, raw []byte, pages int) Source {
	return Source{Kind: KindPDF, FileName: fileName, Raw: raw, TotalUnits: pages}
}

// NewImageSource wraps a single image payload.
func NewImageSource(fileName, mime string, raw []byte) Source {
	return Source{Kind: KindImage, FileName: fileName, Mime: mime, Raw: raw, TotalUnits: 1}
}

// Recognizer extracts text from one image.
type Recognizer interface {
	Recognize(ctx context.Context, mime string, image []byte) (string, error)
}

// Rasterizer renders one PDF page to an image.
type Rasterizer interface {
	RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error)
}

// Unit is one chunk of source content plus the cursor after consuming it.
type Unit struct {
	Content   string
	NewOffset int
}

// Chunker produces units from sources.
type Chunker struct {
	chunkSize  int
	recognizer Recognizer
	rasterizer Rasterizer
}

// New creates a Chunker. chunkSize <= 0 selects the default.
func New(chunkSize int, recognizer Recognizer, rasterizer Rasterizer) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{chunkSize: chunkSize, recognizer: recognizer, rasterizer: rasterizer}
}

// NextUnit returns the unit starting at offset, or nil when the source is
// exhausted.
func (c *Chunker) NextUnit(ctx context.Context, src Source, offset int) (*Unit, error) {
	if offset >= src.TotalUnits {
		return nil, nil
	}

	switch src.Kind {
	case KindText:
		return c.textUnit(src, offset), nil
	case KindPDF:
		return c.pdfUnit(ctx, src, offset)
	case KindImage:
		return c.imageUnit(ctx, src)
	default:
		return nil, eris.Errorf("chunker: unknown source kind %q", src.Kind)
	}
}

// textUnit cuts up to chunkSize runes, snapping the cut back to a paragraph
// break or sentence end when one lies past the midpoint. Snapping only to the
// second half keeps pathological inputs (a wall of newlines up front) from
// shrinking chunks to nothing.
func (c *Chunker) textUnit(src Source, offset int) *Unit {
	end := offset + c.chunkSize
	if end >= src.TotalUnits {
		return &Unit{
			Content:   string(src.Runes[offset:src.TotalUnits]),
			NewOffset: src.TotalUnits,
		}
	}

	slice := string(src.Runes[offset:end])
	half := c.chunkSize / 2

	if idx := strings.LastIndex(slice, "\n\n"); idx >= 0 {
		if n := len([]rune(slice[:idx])); n > half {
			// The separator belongs to this chunk; the next one starts clean.
			n += 2
			return &Unit{Content: string(src.Runes[offset : offset+n]), NewOffset: offset + n}
		}
	}
	if idx := strings.LastIndex(slice, "。"); idx >= 0 {
		if n := len([]rune(slice[:idx])) + 1; n > half {
			return &Unit{Content: string(src.Runes[offset : offset+n]), NewOffset: offset + n}
		}
	}
	return &Unit{Content: slice, NewOffset: end}
}

func (c *Chunker) pdfUnit(ctx context.Context, src Source, offset int) (*Unit, error) {
	page := offset + 1
	img, err := c.rasterizer.RenderPage(ctx, src.Raw, page)
	if err != nil {
		return nil, eris.Wrapf(err, "chunker: rasterize page %d", page)
	}
	text, err := c.recognizer.Recognize(ctx, "image/png", img)
	if err != nil {
		return nil, eris.Wrapf(err, "chunker: ocr page %d", page)
	}
	zap.L().Debug("chunker: pdf page recognized",
		zap.String("file", src.FileName),
		zap.Int("page", page),
		zap.Int("chars", len([]rune(text))),
	)
	return &Unit{Content: text, NewOffset: page}, nil
}

func (c *Chunker) imageUnit(ctx context.Context, src Source) (*Unit, error) {
	mime := src.Mime
	if mime == "" {
		mime = "image/png"
	}
	text, err := c.recognizer.Recognize(ctx, mime, src.Raw)
	if err != nil {
		return nil, eris.Wrap(err, "chunker: ocr image")
	}
	return &Unit{Content: text, NewOffset: 1}, nil
}

// ProvisionalOffset predicts where the cursor will land after consuming one
// unit at offset, without doing any work. Used to fan units out to workers
// before their content is known; the actual offset a worker reports wins.
func (c *Chunker) ProvisionalOffset(src Source, offset int) int {
	switch src.Kind {
	case KindText:
		next := offset + c.chunkSize
		if next > src.TotalUnits {
			next = src.TotalUnits
		}
		return next
	case KindPDF:
		return offset + 1
	default:
		return src.TotalUnits
	}
}
