package bootstrap

import (
	"context"
	"testing"

	"farmavida-master/services/plan"
	"farmavida-master/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestMigrateCreatesSchemaAndSeedsOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{DB: db, Plans: plan.NewService(plan.Params{DB: db, Node: node})})
	ctx := context.Background()

	require.NoError(t, svc.Migrate(ctx))
	require.NoError(t, svc.Migrate(ctx))

	for _, table := range []string{"plans", "tenants", "identities", "profiles", "support_tickets", "ticket_messages", "invoices", "payments", "access_logs"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}

	var n int64
	require.NoError(t, db.Model(&plan.Plan{}).Count(&n).Error)
	require.EqualValues(t, 4, n)
}
