package common

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/storage"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

type size struct {
	w int
	h int
}

func (s size) String() string {
	return fmt.Sprintf("%dx%d", s.w, s.h)
}

var (
	AvatarSizes = []size{
		{w: 512, h: 512},
		{w: 128, h: 128},
		{w: 32, h: 32},
	}

	LogoSize = size{w: 256, h: 256}
)

func ProcessImage(ctx context.Context, fileStorage storage.Storage, key string) ([]*storage.UploadResponse, error) {
	req := xcontext.HTTPRequest(ctx)
	if err := req.ParseMultipartForm(xcontext.Configs(ctx).File.MaxSize); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Request must be multipart form")
	}

	file, header, err := req.FormFile(key)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Error retrieving the File")
	}
	defer file.Close()

	mime := header.Header.Get("Content-Type")
	img, err := decodeImg(mime, file)
	if err != nil {
		return nil, err
	}

	objs := make([]*storage.UploadObject, 0, len(AvatarSizes))
	for _, size := range AvatarSizes {
		img := resize.Resize(uint(size.w), uint(size.h), img, resize.Lanczos2)
		b, err := encodeImg(mime, img)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot encode image: %v", err)
			return nil, errorx.Unknown
		}

		objs = append(objs, &storage.UploadObject{
			Bucket:   string(entity.ImageBucket),
			Prefix:   "avatars",
			FileName: fmt.Sprintf("%dx%d-%s", size.w, size.h, header.Filename),
			Mime:     mime,
			Data:     b,
		})
	}

	uresp, err := fileStorage.BulkUpload(ctx, objs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upload image: %v", err)
		return nil, errorx.Unknown
	}

	return uresp, nil
}

// ProcessRemoteImage downloads an image, resizes it to LogoSize and stores a
// copy in our bucket. Catalog entries never link an image hosted by a third
// party, the original may disappear or change at any time.
func ProcessRemoteImage(ctx context.Context, fileStorage storage.Storage, imageURL string) (*storage.UploadResponse, error) {
	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Got an invalid image url")
	}

	resp, err := xcontext.HTTPClient(ctx).Do(req)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot download the image: %v", err)
		return nil, errorx.Unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorx.New(errorx.BadRequest, "Cannot download the image")
	}

	mime := resp.Header.Get("Content-Type")
	body := io.LimitReader(resp.Body, xcontext.Configs(ctx).File.MaxSize)
	img, err := decodeImg(mime, body)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Got an unsupported image format")
	}

	resized := resize.Resize(uint(LogoSize.w), uint(LogoSize.h), img, resize.Lanczos2)
	b, err := encodeImg(mime, resized)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot encode the image: %v", err)
		return nil, errorx.Unknown
	}

	uresp, err := fileStorage.Upload(ctx, &storage.UploadObject{
		Bucket:   string(entity.ImageBucket),
		Prefix:   "logos",
		FileName: fmt.Sprintf("%s-%s", LogoSize, uuid.NewString()),
		Mime:     mime,
		Data:     b,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upload the image: %v", err)
		return nil, errorx.Unknown
	}

	return uresp, nil
}

func decodeImg(mime string, data io.Reader) (img image.Image, err error) {
	switch mime {
	case "image/jpeg":
		img, err = jpeg.Decode(data)
	case "image/png", "application/octet-stream":
		img, err = png.Decode(data)
	case "image/gif":
		img, err = gif.Decode(data)
	default:
		return nil, fmt.Errorf("We just accept jpeg, gif or png")
	}
	return img, err
}

func encodeImg(mime string, img image.Image) (b []byte, err error) {
	buf := new(bytes.Buffer)

	switch mime {
	case "image/jpeg":
		err = jpeg.Encode(buf, img, nil)
	case "image/png", "application/octet-stream":
		err = png.Encode(buf, img)
	case "image/gif":
		err = gif.Encode(buf, img, nil)
	default:
		return nil, fmt.Errorf("We just accept jpeg or png")
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), err
}
