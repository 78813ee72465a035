package model

type GetListCategoryRequest struct{}

type GetListCategoryResponse struct {
	Categories []Category `json:"categories"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type CreateCategoryResponse struct {
	Category Category `json:"category"`
}

type UpdateCategoryByIDRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UpdateCategoryByIDResponse struct{}

type DeleteCategoryByIDRequest struct {
	ID string `json:"id"`
}

type DeleteCategoryByIDResponse struct{}
