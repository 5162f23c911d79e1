package ffmpeg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	args := Args("/tmp/clip.mp4", 2*time.Second)

	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", "2.000",
		"-i", "/tmp/clip.mp4",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}, args)

	assert.Contains(t, Args("x", 0), "0.000")
}

func TestGrab(t *testing.T) {
	tests := []struct {
		name    string
		stdout  []byte
		stderr  []byte
		err     error
		wantErr error
	}{
		{name: "frame", stdout: []byte{0x89, 'P', 'N', 'G'}},
		{name: "past end of clip", stdout: nil, wantErr: errs.ErrSeekRejected},
		{name: "decode failure", stderr: []byte("moov atom not found\n"), err: errors.New("exit status 1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotArgs []string
			g := New("")
			g.run = func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
				assert.Equal(t, "ffmpeg", name)
				gotArgs = args
				return tt.stdout, tt.stderr, tt.err
			}

			out, err := g.Grab(context.Background(), "/tmp/v.mp4", time.Second)
			assert.Equal(t, Args("/tmp/v.mp4", time.Second), gotArgs)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.err != nil:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "moov atom not found")
				assert.NotErrorIs(t, err, errs.ErrSeekRejected)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.stdout, out)
			}
		})
	}
}

func TestGrab_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New("ffmpeg")
	g.run = func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, nil, errors.New("signal: killed")
	}

	_, err := g.Grab(ctx, "/tmp/v.mp4", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
