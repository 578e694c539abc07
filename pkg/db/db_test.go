package db

import (
	"testing"

	"farmavida-master/pkg/config"

	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	cases := map[string]string{
		"":         "postgres",
		"postgres": "postgres",
		"mysql":    "mysql",
		"sqlite":   "sqlite",
	}
	for typ, want := range cases {
		cfg := &config.Config{}
		cfg.Database.Type = typ
		d, err := Dialect(cfg)
		require.NoError(t, err)
		require.Equal(t, want, d.Name())
	}

	cfg := &config.Config{}
	cfg.Database.Type = "oracle"
	_, err := Dialect(cfg)
	require.Error(t, err)
}
