package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/validate"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/processor"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo/repotest"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/cleanup"
	mediauc "github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/media"
	slotuc "github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/slot"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/thumbnail"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noFrames struct{}

func (noFrames) Grab(context.Context, string, time.Duration) ([]byte, error) {
	return nil, errors.New("moov atom not found")
}

type env struct {
	blobs *repotest.BlobRepo
	media *repotest.MediaRepo
	slots *repotest.RegistrationImageRepo
	app   *fiber.App
}

func newEnv(limits validate.Limits) *env {
	e := &env{
		blobs: repotest.NewBlobRepo(),
		media: repotest.NewMediaRepo(),
		slots: repotest.NewRegistrationImageRepo(),
	}

	intents := repotest.NewCleanupIntentRepo()
	tx := repotest.NewTransactor(e.media, e.slots, intents)
	l := logger.Nop()

	cleanupUC := cleanup.New(e.blobs, e.media, intents, tx, cleanup.Config{StaleAfter: time.Minute, Retention: time.Hour}, l)
	thumbUC := thumbnail.New(noFrames{}, processor.New(), thumbnail.Config{
		Offset: 2 * time.Second, Width: 64, Height: 36, Quality: 80, Timeout: time.Second,
	})

	e.app = fiber.New()
	NewRoutes(e.app.Group("/v1"),
		mediauc.New(e.blobs, e.media, tx, cleanupUC, thumbUC, 15*time.Minute, l),
		slotuc.New(e.blobs, e.slots, tx, cleanupUC, processor.New(), l),
		l,
		limits,
	)

	return e
}

func defaultEnv() *env {
	return newEnv(validate.Limits{MaxImageSize: validate.DefaultMaxImageSize, MaxVideoSize: validate.DefaultMaxVideoSize})
}

type result struct {
	Code int
	Body map[string]any
}

func (e *env) do(t *testing.T, method, path string, body io.Reader, contentType string) result {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := result{Code: resp.StatusCode}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}

	return out
}

func (e *env) json(t *testing.T, method, path string, body any) result {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	return e.do(t, method, path, bytes.NewReader(raw), fiber.MIMEApplicationJSON)
}

type part struct {
	name     string
	fileName string
	data     []byte
}

func (e *env) multipart(t *testing.T, path string, parts ...part) result {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.fileName == "" {
			require.NoError(t, w.WriteField(p.name, string(p.data)))
			continue
		}

		fw, err := w.CreateFormFile(p.name, p.fileName)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return e.do(t, http.MethodPost, path, &buf, w.FormDataContentType())
}

func pngBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(3, 3, color.White)

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)

	return buf.Bytes()
}

func field(name, value string) part {
	return part{name: name, data: []byte(value)}
}

func nested(t *testing.T, body map[string]any, key string) map[string]any {
	t.Helper()

	v, ok := body[key].(map[string]any)
	require.True(t, ok, "%s is not an object: %v", key, body)

	return v
}

func TestIssueUploadURL(t *testing.T) {
	e := defaultEnv()

	res := e.json(t, http.MethodPost, "/v1/media/gallery/upload-url", map[string]string{
		"fileName": "floor final.mp4",
		"fileType": "video/mp4",
	})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, res.Body["success"])
	assert.Contains(t, res.Body["uploadUrl"], "X-Amz-Expires=900")
	assert.Contains(t, res.Body["mediaUrl"], "https://club-media.s3.amazonaws.com/gallery/")

	res = e.json(t, http.MethodPost, "/v1/media/gallery/upload-url", map[string]string{"fileName": "a.jpg"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, false, res.Body["success"])
	assert.Equal(t, "fileType is required", res.Body["error"])

	res = e.json(t, http.MethodPost, "/v1/media/gallery/upload-url?prefix=private/", map[string]string{"fileName": "a.jpg", "fileType": "image/jpeg"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.json(t, http.MethodPost, "/v1/media/coaches/upload-url", map[string]string{"fileName": "a.jpg", "fileType": "image/jpeg"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCreateAndGetMedia(t *testing.T) {
	e := defaultEnv()
	url := e.blobs.Put("athlete/media/beam.jpg", []byte("jpg"))

	res := e.json(t, http.MethodPost, "/v1/media/athlete", map[string]any{
		"athleteId": 7,
		"name":      "Beam",
		"date":      "2024-05-01",
		"mediaUrl":  url,
		"mediaType": "image/jpeg",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	created := nested(t, res.Body, "media")
	id := int64(created["id"].(float64))
	assert.Equal(t, "Beam", created["name"])
	assert.Equal(t, "2024-05-01T00:00:00Z", created["date"])

	res = e.do(t, http.MethodGet, "/v1/media/athlete?athleteId=7", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["media"], 1)

	res = e.do(t, http.MethodGet, "/v1/media/athlete?athleteId=8", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["media"], 0)

	res = e.do(t, http.MethodGet, fmt.Sprintf("/v1/media/athlete?mediaId=%d", id), nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, url, nested(t, res.Body, "media")["mediaUrl"])

	res = e.do(t, http.MethodGet, fmt.Sprintf("/v1/media/gallery?mediaId=%d", id), nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = e.json(t, http.MethodPost, "/v1/media/athlete", map[string]any{"name": "No athlete"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "athleteId is required", res.Body["error"])

	res = e.json(t, http.MethodPost, "/v1/media/gallery", map[string]any{"date": "May 1st"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCreateMedia_StoreFailure(t *testing.T) {
	e := defaultEnv()
	e.media.CreateErr = errors.New("connection refused")

	res := e.json(t, http.MethodPost, "/v1/media/gallery", map[string]any{"name": "Vault"})

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "database error", res.Body["error"])
}

func TestUpdateMedia(t *testing.T) {
	e := defaultEnv()
	res := e.json(t, http.MethodPost, "/v1/media/gallery", map[string]any{"name": "Bars", "date": "2024-02-02", "category": "meets"})
	require.Equal(t, http.StatusOK, res.Code)
	id := int64(nested(t, res.Body, "media")["id"].(float64))
	path := fmt.Sprintf("/v1/media/gallery?mediaId=%d", id)

	res = e.json(t, http.MethodPut, "/v1/media/gallery", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "mediaId is required", res.Body["error"])

	res = e.json(t, http.MethodPut, "/v1/media/gallery?mediaId=999", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = e.json(t, http.MethodPut, path, map[string]any{"name": "Uneven bars"})
	require.Equal(t, http.StatusOK, res.Code)
	updated := nested(t, res.Body, "media")
	assert.Equal(t, "Uneven bars", updated["name"])
	assert.Equal(t, "meets", updated["category"])
	assert.Equal(t, "2024-02-02T00:00:00Z", updated["date"])

	res = e.do(t, http.MethodPut, path, bytes.NewReader([]byte(`{"date":null}`)), fiber.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotContains(t, nested(t, res.Body, "media"), "date")

	res = e.json(t, http.MethodPut, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestDeleteMedia(t *testing.T) {
	e := defaultEnv()
	res := e.json(t, http.MethodPost, "/v1/media/gallery", map[string]any{
		"name":         "Floor",
		"mediaUrl":     e.blobs.Put("gallery/floor.mp4", []byte("mp4")),
		"mediaType":    "video/mp4",
		"thumbnailUrl": e.blobs.Put("gallery/thumbnails/floor.jpg", []byte("jpg")),
	})
	require.Equal(t, http.StatusOK, res.Code)
	id := int64(nested(t, res.Body, "media")["id"].(float64))
	path := fmt.Sprintf("/v1/media/gallery?mediaId=%d", id)

	e.blobs.DeleteErr["*"] = errors.New("service unavailable")
	res = e.do(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "storage error", res.Body["error"])
	assert.Equal(t, 1, e.media.Len())

	delete(e.blobs.DeleteErr, "*")
	e.blobs.ResetCounters()
	res = e.do(t, http.MethodDelete, path, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Floor", nested(t, res.Body, "media")["name"])
	assert.Len(t, e.blobs.Deletes(), 2)
	assert.Equal(t, 0, e.media.Len())

	res = e.do(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = e.do(t, http.MethodDelete, "/v1/media/gallery", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.do(t, http.MethodDelete, "/v1/media/gallery?mediaId=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestIngestMedia(t *testing.T) {
	e := defaultEnv()

	res := e.multipart(t, "/v1/media/gallery/file",
		part{name: "file", fileName: "podium.png", data: pngBytes()},
		field("name", "Podium"),
		field("date", "2025-01-20"),
	)
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	media := nested(t, res.Body, "media")
	assert.Equal(t, "image/png", media["mediaType"])
	assert.Equal(t, "", media["thumbnailUrl"])
	assert.Len(t, e.blobs.Keys(), 1)

	res = e.multipart(t, "/v1/media/gallery/file", field("name", "No file"))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "file is required", res.Body["error"])

	res = e.multipart(t, "/v1/media/athlete/file", part{name: "file", fileName: "a.png", data: pngBytes()})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestStoredFieldsOutliveTheRequest(t *testing.T) {
	e := defaultEnv()

	res := e.multipart(t, "/v1/media/athlete/file",
		part{name: "file", fileName: "beam.png", data: pngBytes()},
		field("athleteId", "7"),
		field("name", "Beam"),
		field("category", "beam"),
	)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	id := int64(nested(t, res.Body, "media")["id"].(float64))

	res = e.multipart(t, "/v1/registration/session-image",
		part{name: "image", fileName: "spring.png", data: pngBytes()},
		field("slot", "next"),
		field("title", "Spring"),
	)
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	// later requests reuse the server's buffers
	e.do(t, http.MethodGet, "/v1/media/gallery?mediaId=999", nil, "")
	e.multipart(t, "/v1/media/gallery/file",
		part{name: "file", fileName: "vault.png", data: pngBytes()},
		field("name", "Vault"),
		field("category", "vault"),
	)
	e.multipart(t, "/v1/registration/session-image",
		part{name: "image", fileName: "camp.png", data: pngBytes()},
		field("slot", "camp"),
		field("title", "Camp"),
	)

	stored, err := e.media.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.ParentAthlete, stored.Parent)
	assert.Equal(t, "Beam", stored.Name)
	assert.Equal(t, "beam", stored.Category)

	next, err := e.slots.GetBySlot(context.Background(), entity.SlotNext)
	require.NoError(t, err)
	assert.Equal(t, entity.SlotNext, next.Slot)
	assert.Equal(t, "Spring", next.Title)

	res = e.do(t, http.MethodGet, fmt.Sprintf("/v1/media/gallery?mediaId=%d", id), nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestIngestMedia_TooLarge(t *testing.T) {
	e := newEnv(validate.Limits{MaxImageSize: 16, MaxVideoSize: 16})

	res := e.multipart(t, "/v1/media/gallery/file", part{name: "file", fileName: "podium.png", data: pngBytes()})

	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
	assert.Empty(t, e.blobs.Keys())
}

func TestSessionImages(t *testing.T) {
	e := defaultEnv()

	res := e.multipart(t, "/v1/registration/session-image", part{name: "image", fileName: "a.png", data: pngBytes()})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "slot is required", res.Body["error"])

	res = e.multipart(t, "/v1/registration/session-image", field("slot", "next"), field("image", "not a file"))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "image must be a file", res.Body["error"])

	res = e.multipart(t, "/v1/registration/session-image",
		field("slot", "next"),
		part{name: "image", fileName: "schedule.txt", data: []byte("plain text")},
	)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.json(t, http.MethodPatch, "/v1/registration/session-image", map[string]string{"action": "promote-next"})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, errs.ErrNoNextImage.Error(), res.Body["error"])

	e.slots.Set(entity.SlotCurrent, e.blobs.Put("registration/session-images/current/winter.png", pngBytes()), "Winter")

	res = e.multipart(t, "/v1/registration/session-image",
		field("slot", "next"),
		field("title", "Spring"),
		part{name: "image", fileName: "spring.png", data: pngBytes()},
	)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	uploaded := nested(t, res.Body, "image")
	assert.Equal(t, "next", uploaded["slot"])

	res = e.json(t, http.MethodPatch, "/v1/registration/session-image", map[string]string{"action": "demote"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.json(t, http.MethodPatch, "/v1/registration/session-image", map[string]string{"action": "promote-next"})
	require.Equal(t, http.StatusOK, res.Code)
	promoted := nested(t, res.Body, "image")
	assert.Equal(t, "current", promoted["slot"])
	assert.Equal(t, "Spring", promoted["title"])
	assert.Equal(t, uploaded["imageUrl"], promoted["imageUrl"])

	res = e.do(t, http.MethodGet, "/v1/registration/session-image", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["images"], 1)

	res = e.json(t, http.MethodDelete, "/v1/registration/session-image", map[string]string{"slot": "camp"})
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = e.json(t, http.MethodDelete, "/v1/registration/session-image", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.json(t, http.MethodDelete, "/v1/registration/session-image", map[string]string{"slot": "current"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Spring", nested(t, res.Body, "image")["title"])
	assert.Equal(t, 0, e.slots.Len())
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("MediaUseCase - Update: nothing to update: %w", errs.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("MediaUseCase - Get: %w", errs.ErrRecordNotFound), http.StatusNotFound},
		{fmt.Errorf("SlotUseCase - PromoteNext: %w", errs.ErrNoNextImage), http.StatusNotFound},
		{fmt.Errorf("SlotUseCase - PromoteNext: %w", errs.ErrConflict), http.StatusConflict},
		{fmt.Errorf("CleanupUseCase - DeleteObjects: %w", errs.ErrStorage), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, errorStatus(tc.err), tc.err.Error())
	}
}

func TestDetail(t *testing.T) {
	err := fmt.Errorf("MediaUseCase - IssueUpload: %w", fmt.Errorf("prefix %q is not allowed: %w", "x/", errs.ErrValidation))
	assert.Equal(t, `prefix "x/" is not allowed`, detail(err, errs.ErrValidation))

	assert.Equal(t, "validation error", detail(errs.ErrValidation, errs.ErrValidation))
}
