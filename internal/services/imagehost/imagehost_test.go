package imagehost

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/balancecheck/internal/clients"
	"github.com/vadiminshakov/balancecheck/pkg/retrier"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balance.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0o600))
	return path
}

func TestNewMetadata(t *testing.T) {
	meta := NewMetadata(time.Unix(1700000000, 0), time.Unix(1700086400, 0))

	assert.Equal(t, "Crypto Balance Check", meta.Title)
	assert.Equal(t, "2023-11-14 22:13:20 to 2023-11-15 22:13:20", meta.Description)
}

func TestImgur_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/3/image", r.URL.Path)
		assert.Equal(t, "Client-ID abc", r.Header.Get("Authorization"))

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Crypto Balance Check", r.FormValue("title"))
		assert.Equal(t, "a to b", r.FormValue("description"))

		file, _, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(file)
		assert.Equal(t, "\x89PNG fake", string(data))

		_, _ = w.Write([]byte(`{"success": true, "data": {"link": "https://i.imgur.com/x.png"}}`))
	}))
	defer srv.Close()

	rest := clients.NewRESTClient(srv.URL, clients.WithSigner(ClientIDSigner("abc")),
		clients.WithRetrier(retrier.New(retrier.WithMaxRetries(0))))

	link, err := NewImgur(rest).Upload(context.Background(), writeImage(t), Metadata{Title: DefaultTitle, Description: "a to b"})
	require.NoError(t, err)
	assert.Equal(t, "https://i.imgur.com/x.png", link)
}

func TestImgur_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "data": {"error": "bad image"}}`))
	}))
	defer srv.Close()

	rest := clients.NewRESTClient(srv.URL, clients.WithRetrier(retrier.New(retrier.WithMaxRetries(0))))
	_, err := NewImgur(rest).Upload(context.Background(), writeImage(t), Metadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad image")
}

type fakeObjectUploader struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeObjectUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	return &manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

func TestS3_Upload(t *testing.T) {
	fake := &fakeObjectUploader{}
	up := &S3{
		cfg:      S3Config{Bucket: "graphs", Prefix: "/balance/"},
		uploader: fake,
		now:      func() time.Time { return time.Unix(1700000000, 0) },
	}

	link, err := up.Upload(context.Background(), writeImage(t), NewMetadata(time.Unix(0, 0), time.Unix(60, 0)))
	require.NoError(t, err)

	assert.Equal(t, "https://bucket.s3.amazonaws.com/balance/1700000000-balance.png", link)
	assert.Equal(t, "graphs", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, DefaultTitle, fake.input.Metadata["title"])
	assert.Equal(t, "\x89PNG fake", string(fake.body))

	up.cfg.PublicURL = "https://cdn.example.com/"
	link, err = up.Upload(context.Background(), writeImage(t), Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/balance/1700000000-balance.png", link)
}
