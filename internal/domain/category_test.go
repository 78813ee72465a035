package domain

import (
	"testing"

	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/stretchr/testify/require"
)

func Test_categoryDomain_FullScenario(t *testing.T) {
	ctx := testutil.MockContext()
	admin, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	adminCtx := testutil.MockContextWithUserID(ctx, admin.ID)

	categoryDomain := NewCategoryDomain(repository.NewCategoryRepository())

	// Create successfully, positions are assigned in order.
	giftCards, err := categoryDomain.Create(adminCtx, &model.CreateCategoryRequest{Name: "Gift cards"})
	require.NoError(t, err)
	require.Equal(t, 0, giftCards.Category.Position)
	require.Equal(t, admin.ID, giftCards.Category.CreatedBy)

	food, err := categoryDomain.Create(adminCtx, &model.CreateCategoryRequest{Name: "Food"})
	require.NoError(t, err)
	require.Equal(t, 1, food.Category.Position)

	travel, err := categoryDomain.Create(adminCtx, &model.CreateCategoryRequest{Name: "Travel"})
	require.NoError(t, err)
	require.Equal(t, 2, travel.Category.Position)

	// Cannot create with an empty or duplicated name.
	_, err = categoryDomain.Create(adminCtx, &model.CreateCategoryRequest{Name: ""})
	require.Error(t, err)
	require.Equal(t, "Not allow empty category name", err.Error())

	_, err = categoryDomain.Create(adminCtx, &model.CreateCategoryRequest{Name: "Food"})
	require.Error(t, err)
	require.Equal(t, "This category name already exists", err.Error())

	// The list comes back ordered by position.
	list, err := categoryDomain.GetList(ctx, &model.GetListCategoryRequest{})
	require.NoError(t, err)
	require.Len(t, list.Categories, 3)
	require.Equal(t, "Gift cards", list.Categories[0].Name)
	require.Equal(t, "Food", list.Categories[1].Name)
	require.Equal(t, "Travel", list.Categories[2].Name)

	// Rename successfully.
	_, err = categoryDomain.UpdateByID(adminCtx, &model.UpdateCategoryByIDRequest{
		ID:   food.Category.ID,
		Name: "Dining",
	})
	require.NoError(t, err)

	_, err = categoryDomain.UpdateByID(adminCtx, &model.UpdateCategoryByIDRequest{
		ID:   "no-such-category",
		Name: "Whatever",
	})
	require.Error(t, err)
	require.Equal(t, "Invalid category", err.Error())

	// Deleting closes the position gap.
	_, err = categoryDomain.DeleteByID(adminCtx, &model.DeleteCategoryByIDRequest{
		ID: giftCards.Category.ID,
	})
	require.NoError(t, err)

	list, err = categoryDomain.GetList(ctx, &model.GetListCategoryRequest{})
	require.NoError(t, err)
	require.Len(t, list.Categories, 2)
	require.Equal(t, "Dining", list.Categories[0].Name)
	require.Equal(t, 0, list.Categories[0].Position)
	require.Equal(t, "Travel", list.Categories[1].Name)
	require.Equal(t, 1, list.Categories[1].Position)

	_, err = categoryDomain.DeleteByID(adminCtx, &model.DeleteCategoryByIDRequest{
		ID: giftCards.Category.ID,
	})
	require.Error(t, err)
	require.Equal(t, "Invalid category", err.Error())
}
