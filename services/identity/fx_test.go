package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func TestModuleGraph(t *testing.T) {
	require.NoError(t, fx.ValidateApp(
		Module,
		fx.Supply(&gorm.DB{}),
		fx.NopLogger,
	))
}
