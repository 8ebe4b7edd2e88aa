package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Rasterizer renders PDF pages to images for OCR.
type Rasterizer interface {
	PageCount(ctx context.Context, pdf []byte) (int, error)
	RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error)
}

// PopplerRasterizer shells out to poppler's pdfinfo and pdftoppm.
type PopplerRasterizer struct {
	pdfinfoPath  string
	pdftoppmPath string
	dpi          int
}

// NewPopplerRasterizer creates a rasterizer using the given binary paths.
// Empty paths fall back to lookup on PATH.
func NewPopplerRasterizer(pdfinfoPath, pdftoppmPath string, dpi int) *PopplerRasterizer {
	if pdfinfoPath == "" {
		pdfinfoPath = "pdfinfo"
	}
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 150
	}
	return &PopplerRasterizer{pdfinfoPath: pdfinfoPath, pdftoppmPath: pdftoppmPath, dpi: dpi}
}

// PageCount reports the number of pages in the document.
func (p *PopplerRasterizer) PageCount(ctx context.Context, pdf []byte) (int, error) {
	path, cleanup, err := writeTemp(pdf)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	out, err := exec.CommandContext(ctx, p.pdfinfoPath, path).Output()
	if err != nil {
		return 0, eris.Wrap(err, "ocr: run pdfinfo")
	}

	for _, line := range strings.Split(string(out), "\n") {
		if rest, ok := strings.CutPrefix(line, "Pages:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return 0, eris.Wrapf(err, "ocr: parse page count %q", rest)
			}
			return n, nil
		}
	}
	return 0, eris.New("ocr: pdfinfo output missing page count")
}

// RenderPage rasterizes one page (1-based) to PNG.
func (p *PopplerRasterizer) RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	path, cleanup, err := writeTemp(pdf)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outPrefix := strings.TrimSuffix(path, ".pdf") + "-page"
	pageArg := strconv.Itoa(page)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.pdftoppmPath,
		"-png",
		"-r", strconv.Itoa(p.dpi),
		"-f", pageArg,
		"-l", pageArg,
		"-singlefile",
		path, outPrefix,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		zap.L().Error("ocr: pdftoppm failed",
			zap.Int("page", page),
			zap.String("stderr", stderr.String()),
		)
		return nil, eris.Wrapf(err, "ocr: render page %d", page)
	}

	img, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read rendered page")
	}
	defer os.Remove(outPrefix + ".png") //nolint:errcheck

	return img, nil
}

func writeTemp(pdf []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "eduflow-*.pdf")
	if err != nil {
		return "", nil, eris.Wrap(err, "ocr: create temp file")
	}
	if _, err := f.Write(pdf); err != nil {
		f.Close()              //nolint:errcheck
		os.Remove(f.Name())    //nolint:errcheck
		return "", nil, eris.Wrap(err, "ocr: write temp file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name()) //nolint:errcheck
		return "", nil, eris.Wrap(err, "ocr: close temp file")
	}
	name := f.Name()
	return name, func() { os.Remove(name) }, nil //nolint:errcheck
}
