package model

type GetMeRequest struct{}

type GetMeResponse struct {
	User          User          `json:"user"`
	RewardProfile RewardProfile `json:"reward_profile"`
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdateUserResponse struct{}
