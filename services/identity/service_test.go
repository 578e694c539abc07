package identity

import (
	"context"
	"testing"

	"farmavida-master/pkg/security"
	"farmavida-master/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestCreateUser(t *testing.T) {
	db := testutil.NewTestDB(t, &Identity{})
	svc := NewService(Params{DB: db})
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Dono@Farmacia.com", "A12bcdef", Metadata{Role: "ADMIN", FullName: "Dono", TenantID: "t-1"})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "dono@farmacia.com", user.Email)

	var row Identity
	require.NoError(t, db.First(&row, "id = ?", user.ID).Error)
	require.True(t, row.EmailConfirmed)
	require.Equal(t, "t-1", row.Metadata.Data().TenantID)
	require.NotEqual(t, "A12bcdef", row.PasswordHash)

	_, err = svc.CreateUser(ctx, "dono@farmacia.com", "B34ghijk", Metadata{})
	require.ErrorIs(t, err, ErrEmailTaken)

	ok, err := security.VerifyArgon2("A12bcdef", row.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Delete(ctx, user.ID))
	require.ErrorIs(t, db.First(&Identity{}, "id = ?", user.ID).Error, gorm.ErrRecordNotFound)
}
