package profile

import (
	"context"
	"testing"

	"farmavida-master/services/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStore(t *testing.T) {
	db := testutil.NewTestDB(t, &Profile{})
	store := NewStore(Params{DB: db})
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &Profile{
		ID:       "u-1",
		Email:    " Admin@Drogaria.com ",
		FullName: "Ana",
		Role:     RoleCEO,
		TenantID: "t-1",
		Status:   StatusActive,
	}))

	exists, err := store.ExistsByEmail(ctx, "admin@drogaria.com")
	require.NoError(t, err)
	require.True(t, exists)

	err = store.Insert(ctx, &Profile{ID: "u-2", Email: "ADMIN@drogaria.com", TenantID: "t-1"})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, store.UpdateName(ctx, "u-1", "Ana Souza"))
	p, err := store.FindByEmail(ctx, "ADMIN@DROGARIA.COM")
	require.NoError(t, err)
	require.Equal(t, "Ana Souza", p.FullName)

	missing, err := store.FindByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	list, err := store.ListByTenant(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}
