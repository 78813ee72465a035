package domain

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/storage"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

// multipartImageContext wraps ctx with a multipart request carrying one tiny
// png under the "image" form field.
func multipartImageContext(t *testing.T, ctx context.Context) context.Context {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	img.Set(2, 3, color.RGBA{255, 0, 0, 255})

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("image", "out.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(fw, img))
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/upload", body)
	request.Header.Add("Content-Type", writer.FormDataContentType())
	return xcontext.WithHTTPRequest(ctx, request)
}

func Test_fileDomain_UploadImage(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	ctx = multipartImageContext(t, testutil.MockContextWithUserID(ctx, user.ID))

	var uploaded []*storage.UploadObject
	fileDomain := NewFileDomain(repository.NewFileRepository(), &testutil.MockStorage{
		BulkUploadFunc: func(ctx context.Context, objs []*storage.UploadObject) ([]*storage.UploadResponse, error) {
			uploaded = objs
			resps := []*storage.UploadResponse{}
			for _, obj := range objs {
				resps = append(resps, &storage.UploadResponse{
					FileName: obj.FileName,
					Url:      "https://cdn.example.com/" + obj.FileName,
				})
			}
			return resps, nil
		},
	})

	resp, err := fileDomain.UploadImage(ctx, &model.UploadImageRequest{})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/512x512-out.png", resp.URL)

	// One object per size, the largest comes first.
	require.Len(t, uploaded, 3)
	require.Equal(t, "512x512-out.png", uploaded[0].FileName)
	require.Equal(t, "128x128-out.png", uploaded[1].FileName)
	require.Equal(t, "32x32-out.png", uploaded[2].FileName)

	// The upload leaves a file record behind.
	var files []entity.File
	require.NoError(t, xcontext.DB(ctx).Find(&files).Error)
	require.Len(t, files, 1)
	require.Equal(t, user.ID, files[0].CreatedBy)
	require.Equal(t, resp.URL, files[0].Url)
}

func Test_fileDomain_UploadImage_NotMultipart(t *testing.T) {
	ctx := testutil.MockContext()
	request := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("not a form"))
	ctx = xcontext.WithHTTPRequest(ctx, request)

	fileDomain := NewFileDomain(repository.NewFileRepository(), &testutil.MockStorage{})
	_, err := fileDomain.UploadImage(ctx, &model.UploadImageRequest{})
	require.Error(t, err)
	require.Equal(t, "Request must be multipart form", err.Error())
}
