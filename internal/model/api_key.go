package model

type GenerateAPIKeyRequest struct {
	// UserID is the partner service account owning the key. Empty means the
	// caller.
	UserID string `json:"user_id"`
}

type GenerateAPIKeyResponse struct {
	Key string `json:"key"`
}

type RegenerateAPIKeyRequest struct {
	UserID string `json:"user_id"`
}

type RegenerateAPIKeyResponse struct {
	Key string `json:"key"`
}

type RevokeAPIKeyRequest struct {
	UserID string `json:"user_id"`
}

type RevokeAPIKeyResponse struct{}
