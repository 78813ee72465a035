package model

type UploadAvatarRequest struct {
	// Avatar data is included in form-data.
}

type UploadAvatarResponse struct {
	// AvatarURLs maps a size to the public url of the resized copy.
	AvatarURLs map[string]string `json:"avatar_urls"`
}

type UploadImageRequest struct {
	// Image data is included in form-data.
}

type UploadImageResponse struct {
	URL string `json:"url"`
}
