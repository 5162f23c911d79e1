package thumbnail

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGrabber struct {
	offsets []time.Duration
	paths   []string
	frames  map[time.Duration][]byte
	err     map[time.Duration]error
}

func (g *fakeGrabber) Grab(_ context.Context, path string, offset time.Duration) ([]byte, error) {
	g.offsets = append(g.offsets, offset)
	g.paths = append(g.paths, path)

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if string(b) != "video-bytes" {
		return nil, errors.New("unexpected spool content")
	}

	if err := g.err[offset]; err != nil {
		return nil, err
	}

	return g.frames[offset], nil
}

type fakeProcessor struct {
	got []byte
	err error
}

func (p *fakeProcessor) Thumbnail(_ context.Context, data []byte, width, height, quality int) ([]byte, error) {
	p.got = data
	if p.err != nil {
		return nil, p.err
	}

	return []byte("jpeg:" + string(data)), nil
}

func (p *fakeProcessor) Inspect([]byte) (dto.ImageInfo, error) {
	return dto.ImageInfo{}, nil
}

func newUseCase(g *fakeGrabber, p *fakeProcessor) *ThumbnailUseCase {
	return New(g, p, Config{Offset: 2 * time.Second, Width: 640, Height: 360, Quality: 80, Timeout: time.Second})
}

func TestExtract_FrameAtOffset(t *testing.T) {
	g := &fakeGrabber{frames: map[time.Duration][]byte{2 * time.Second: []byte("frame@2")}}
	p := &fakeProcessor{}

	thumb, err := newUseCase(g, p).Extract(context.Background(), strings.NewReader("video-bytes"))
	require.NoError(t, err)

	assert.Equal(t, []byte("jpeg:frame@2"), thumb)
	assert.Equal(t, []time.Duration{2 * time.Second}, g.offsets)

	_, statErr := os.Stat(g.paths[0])
	assert.True(t, os.IsNotExist(statErr), "spooled video must be removed")
}

func TestExtract_ShortClipRetriesAtZero(t *testing.T) {
	g := &fakeGrabber{
		frames: map[time.Duration][]byte{0: []byte("frame@0")},
		err:    map[time.Duration]error{2 * time.Second: errs.ErrSeekRejected},
	}
	p := &fakeProcessor{}

	thumb, err := newUseCase(g, p).Extract(context.Background(), strings.NewReader("video-bytes"))
	require.NoError(t, err)

	assert.Equal(t, []byte("jpeg:frame@0"), thumb)
	assert.Equal(t, []time.Duration{2 * time.Second, 0}, g.offsets)
}

func TestExtract_DecodeFailure(t *testing.T) {
	g := &fakeGrabber{err: map[time.Duration]error{2 * time.Second: errors.New("invalid data found when processing input")}}
	p := &fakeProcessor{}

	_, err := newUseCase(g, p).Extract(context.Background(), strings.NewReader("video-bytes"))

	assert.ErrorIs(t, err, errs.ErrThumbnail)
	assert.Equal(t, []time.Duration{2 * time.Second}, g.offsets, "only a rejected seek is retried")
	assert.Nil(t, p.got)
}

func TestExtract_EncodeFailure(t *testing.T) {
	g := &fakeGrabber{frames: map[time.Duration][]byte{2 * time.Second: []byte("frame")}}
	p := &fakeProcessor{err: errors.New("encode")}

	_, err := newUseCase(g, p).Extract(context.Background(), strings.NewReader("video-bytes"))

	assert.ErrorIs(t, err, errs.ErrThumbnail)
}

func TestExtract_RetryAlsoRejected(t *testing.T) {
	g := &fakeGrabber{err: map[time.Duration]error{
		2 * time.Second: errs.ErrSeekRejected,
		0:               errs.ErrSeekRejected,
	}}

	_, err := newUseCase(g, &fakeProcessor{}).Extract(context.Background(), strings.NewReader("video-bytes"))

	assert.ErrorIs(t, err, errs.ErrThumbnail)
	assert.Len(t, g.offsets, 2)
}
