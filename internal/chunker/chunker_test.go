package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTextChunkingUniform(t *testing.T) {
	// 9000 runes with no break characters: three hard cuts at 3000 each.
	src := NewTextSource("a.txt", strings.Repeat("a", 9000))
	c := New(3000, nil, nil)

	offsets := []int{}
	offset := 0
	for {
		unit, err := c.NextUnit(context.Background(), src, offset)
		require.NoError(t, err)
		if unit == nil {
			break
		}
		offset = unit.NewOffset
		offsets = append(offsets, offset)
	}
	assert.Equal(t, []int{3000, 6000, 9000}, offsets)
}

func TestTextChunkingParagraphSnap(t *testing.T) {
	// Paragraph break at rune 2000 of a 3000-rune window, past the midpoint.
	text := strings.Repeat("x", 2000) + "\n\n" + strings.Repeat("y", 4000)
	src := NewTextSource("a.txt", text)
	c := New(3000, nil, nil)

	unit, err := c.NextUnit(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, 2002, unit.NewOffset)
	assert.Equal(t, strings.Repeat("x", 2000)+"\n\n", unit.Content)

	// The next chunk starts on content, not on the leftover separator.
	unit, err = c.NextUnit(context.Background(), src, unit.NewOffset)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(unit.Content, "y"))
}

func TestTextChunkingSentenceSnap(t *testing.T) {
	// No paragraph break; sentence end at rune 2500 keeps the 。.
	text := strings.Repeat("x", 2499) + "。" + strings.Repeat("y", 4000)
	src := NewTextSource("a.txt", text)
	c := New(3000, nil, nil)

	unit, err := c.NextUnit(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, 2500, unit.NewOffset)
	assert.True(t, strings.HasSuffix(unit.Content, "。"))
}

func TestTextChunkingEarlyBreakIgnored(t *testing.T) {
	// A break before the midpoint must not shrink the chunk.
	text := strings.Repeat("x", 100) + "\n\n" + strings.Repeat("y", 8000)
	src := NewTextSource("a.txt", text)
	c := New(3000, nil, nil)

	unit, err := c.NextUnit(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, 3000, unit.NewOffset)
}

func TestTextChunkingTail(t *testing.T) {
	src := NewTextSource("a.txt", strings.Repeat("a", 500))
	c := New(3000, nil, nil)

	unit, err := c.NextUnit(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, 500, unit.NewOffset)

	unit, err = c.NextUnit(context.Background(), src, 500)
	require.NoError(t, err)
	assert.Nil(t, unit)
}

func TestPDFUnit(t *testing.T) {
	rast := new(mockRasterizer)
	reco := new(mockRecognizer)
	pdf := []byte("%PDF")
	rast.On("RenderPage", mock.Anything, pdf, 3).Return([]byte("png-bytes"), nil)
	reco.On("Recognize", mock.Anything, "image/png", []byte("png-bytes")).Return("第三页内容", nil)

	c := New(0, reco, rast)
	src := NewPDFSource("doc.pdf", pdf, 5)

	unit, err := c.NextUnit(context.Background(), src, 2)
	require.NoError(t, err)
	assert.Equal(t, "第三页内容", unit.Content)
	assert.Equal(t, 3, unit.NewOffset)
	rast.AssertExpectations(t)
	reco.AssertExpectations(t)
}

func TestImageUnitSingleShot(t *testing.T) {
	reco := new(mockRecognizer)
	reco.On("Recognize", mock.Anything, "image/jpeg", []byte("jpg")).Return("图片文字", nil)

	c := New(0, reco, nil)
	src := NewImageSource("scan.jpg", "image/jpeg", []byte("jpg"))

	unit, err := c.NextUnit(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, unit.NewOffset)

	unit, err = c.NextUnit(context.Background(), src, 1)
	require.NoError(t, err)
	assert.Nil(t, unit)
}

func TestProvisionalOffsets(t *testing.T) {
	c := New(3000, nil, nil)

	text := NewTextSource("a.txt", strings.Repeat("a", 4000))
	assert.Equal(t, 3000, c.ProvisionalOffset(text, 0))
	assert.Equal(t, 4000, c.ProvisionalOffset(text, 3000))

	pdf := NewPDFSource("a.pdf", nil, 4)
	assert.Equal(t, 3, c.ProvisionalOffset(pdf, 2))

	img := NewImageSource("a.png", "image/png", nil)
	assert.Equal(t, 1, c.ProvisionalOffset(img, 0))
}
