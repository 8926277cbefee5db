package imagehost

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/balancecheck/internal/clients"
)

const (
	ImgurBaseURL = "https://api.imgur.com"

	imgurUploadPath = "/3/image"
)

// ClientIDSigner anonymous Imgur uploads.
type ClientIDSigner string

func (id ClientIDSigner) Sign(req *http.Request, _ []byte) error {
	req.Header.Set("Authorization", "Client-ID "+string(id))
	return nil
}

type imgurResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Link  string `json:"link"`
		Error string `json:"error"`
	} `json:"data"`
}

// Imgur uploads images anonymously.
type Imgur struct {
	rest *clients.RESTClient
}

// NewImgur rest must carry a ClientIDSigner.
func NewImgur(rest *clients.RESTClient) *Imgur {
	return &Imgur{rest: rest}
}

func (i *Imgur) Upload(ctx context.Context, path string, meta Metadata) (string, error) {
	body, contentType, err := imgurForm(path, meta)
	if err != nil {
		return "", err
	}

	header := http.Header{}
	header.Set("Content-Type", contentType)

	var resp imgurResponse
	err = i.rest.Do(ctx, clients.Request{Method: http.MethodPost, Path: imgurUploadPath, Body: body, Header: header}, &resp)
	if err != nil {
		return "", errors.Wrap(err, "upload to imgur")
	}
	if !resp.Success || resp.Data.Link == "" {
		return "", errors.Errorf("imgur upload rejected: %s", resp.Data.Error)
	}
	return resp.Data.Link, nil
}

func imgurForm(path string, meta Metadata) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "open image")
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return nil, "", errors.Wrap(err, "create image part")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", errors.Wrap(err, "read image")
	}
	for k, v := range map[string]string{"type": "file", "title": meta.Title, "description": meta.Description} {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", errors.Wrapf(err, "write %s field", k)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart form")
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
