package gen

import (
	"fmt"

	"farmavida-master/pkg/config"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake", fx.Provide(NewNode))

// NewNode builds the id generator for this process. NODE_ID must be unique
// per replica writing to the same database.
func NewNode(cfg *config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node %d: %w", cfg.NodeID, err)
	}
	return node, nil
}
