package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

// HTTPDoer is the interface for executing upload requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Asset is a stored image reference.
type Asset struct {
	URL      string `json:"secure_url"`
	PublicID string `json:"public_id"`
}

// Uploader stores card image payloads with an external image host.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (*Asset, error)
}

// HTTPUploader implements Uploader against a Cloudinary-style unsigned
// upload endpoint.
type HTTPUploader struct {
	client       HTTPDoer
	uploadURL    string
	uploadPreset string
}

// NewHTTPUploader creates an image uploader.
func NewHTTPUploader(client HTTPDoer, uploadURL, uploadPreset string) *HTTPUploader {
	return &HTTPUploader{
		client:       client,
		uploadURL:    uploadURL,
		uploadPreset: uploadPreset,
	}
}

// Upload posts the image as multipart form data and returns the hosted asset.
func (u *HTTPUploader) Upload(ctx context.Context, filename string, data []byte) (*Asset, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("upload_preset", u.uploadPreset); err != nil {
		return nil, fmt.Errorf("write upload preset field: %w", err)
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write image payload: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Dependency("media", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Dependency("media", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Dependency("media",
			fmt.Errorf("upload image: status %d", resp.StatusCode))
	}

	var asset Asset
	if err := json.Unmarshal(body, &asset); err != nil {
		return nil, apperrors.Dependency("media", fmt.Errorf("decode upload response: %w", err))
	}
	if asset.URL == "" {
		return nil, apperrors.Dependency("media", fmt.Errorf("upload response missing url"))
	}

	return &asset, nil
}

// ContentTypeAllowed reports whether the declared image content type is one
// the intake endpoint accepts.
func ContentTypeAllowed(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}
