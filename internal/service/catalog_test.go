package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Ankara Fabrics":      "ankara-fabrics",
		"  Beads & Jewellery ": "beads-jewellery",
		"Aso-Oke":             "aso-oke",
		"Shoes!!":             "shoes",
		"Ọja":                 "ja",
		"***":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), in)
	}
}

func TestCategoryService_CreateListDelete(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{s: newMemStore()})

	created, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Ankara Fabrics"})
	require.NoError(t, err)
	assert.Equal(t, "ankara-fabrics", created.Slug)

	_, err = svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Ankara Fabrics"})
	assert.ErrorIs(t, err, ErrCategoryExists)

	custom, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Beads", Slug: "Hand Made Beads"})
	require.NoError(t, err)
	assert.Equal(t, "hand-made-beads", custom.Slug)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ankara Fabrics", list[0].Name)

	got, err := svc.Get(context.Background(), custom.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beads", got.Name)

	require.NoError(t, svc.Delete(context.Background(), custom.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), custom.ID), ErrCategoryNotFound)
	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_Create_NoSlug(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{s: newMemStore()})
	_, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "***"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)
}
