package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"bookstore-cli/model"
)

// MaxImageSize is the largest image the backend accepts.
const MaxImageSize = 5 << 20

var (
	// ErrUnsupportedImage is returned for files that are not jpeg, png, gif or webp.
	ErrUnsupportedImage = errors.New("only JPG, PNG, GIF and WebP images are supported")
	// ErrImageTooLarge is returned for files over MaxImageSize.
	ErrImageTooLarge = errors.New("image must not exceed 5MB")
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// CheckImage validates a local image without uploading it and returns its
// detected MIME type.
func CheckImage(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxImageSize {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrImageTooLarge)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", path, err)
	}
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%s (%s): %w", filepath.Base(path), mt.String(), ErrUnsupportedImage)
}

// UploadImage posts a local image as multipart form data. kind is
// model.UploadAvatar or model.UploadComment.
func (c *Client) UploadImage(ctx context.Context, path, kind string) (model.Upload, error) {
	if kind != model.UploadAvatar && kind != model.UploadComment {
		kind = model.UploadComment
	}
	if _, err := CheckImage(path); err != nil {
		return model.Upload{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return model.Upload{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return model.Upload{}, fmt.Errorf("build upload: %w", err)
	}
	if err := w.WriteField("type", kind); err != nil {
		return model.Upload{}, fmt.Errorf("build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return model.Upload{}, fmt.Errorf("build upload: %w", err)
	}

	var raw json.RawMessage
	if err := c.send(ctx, http.MethodPost, "/upload/image", nil, &buf, w.FormDataContentType(), &raw); err != nil {
		return model.Upload{}, err
	}
	rec, err := model.DecodeRecord(raw)
	if err != nil {
		return model.Upload{}, &Error{Kind: KindDecode, Message: "unexpected upload response from server", cause: err}
	}
	return model.UploadFromRecord(rec), nil
}
