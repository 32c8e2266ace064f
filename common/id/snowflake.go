package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out time-ordered int64 ids for pipeline runs.
type Generator interface {
	New() int64
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewGenerator creates a Snowflake generator for the given node ID.
// Instances running side by side need distinct node IDs.
func NewGenerator(nodeID int64) (Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	return &snowflakeGenerator{node: node}, nil
}

func (g *snowflakeGenerator) New() int64 {
	return g.node.Generate().Int64()
}
