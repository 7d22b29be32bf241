package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

func TestMemberRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t).Repositories().Members

	m := &domain.Member{Name: "kim", Address: domain.Address{City: "seoul", Street: "gangnam", Zipcode: "123"}}
	require.NoError(t, r.Save(ctx, m))
	require.NotZero(t, m.ID)

	got, err := r.FindOne(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	byName, err := r.FindByName(ctx, "kim")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, m.ID, byName[0].ID)
}

func TestMemberRepository_DuplicateNameViolatesUnique(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t).Repositories().Members

	require.NoError(t, r.Save(ctx, &domain.Member{Name: "kim"}))
	err := r.Save(ctx, &domain.Member{Name: "kim"})
	require.ErrorIs(t, err, app.ErrDuplicateName)
}

func TestMemberRepository_Update(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t).Repositories().Members

	kim := &domain.Member{Name: "kim"}
	lee := &domain.Member{Name: "lee"}
	require.NoError(t, r.Save(ctx, kim))
	require.NoError(t, r.Save(ctx, lee))

	kim.Name = "park"
	require.NoError(t, r.Update(ctx, kim))
	got, err := r.FindOne(ctx, kim.ID)
	require.NoError(t, err)
	assert.Equal(t, "park", got.Name)

	lee.Name = "park"
	require.ErrorIs(t, r.Update(ctx, lee), app.ErrDuplicateName)

	require.ErrorIs(t, r.Update(ctx, &domain.Member{ID: 999, Name: "ghost"}), app.ErrNotFound)
}

func TestMemberRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t).Repositories().Members

	empty, err := r.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, r.Save(ctx, &domain.Member{Name: name}))
	}
	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "c", all[2].Name)

	_, err = r.FindOne(ctx, 999)
	assert.ErrorIs(t, err, app.ErrNotFound)
}
