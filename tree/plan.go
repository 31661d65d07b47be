// Package tree builds a device tree from a declarative JSON plan. Each
// node names a registered builder by type; multiplexer and container
// children are constructed through the parent's AttachFunc so that any
// power-on register reads in a driver constructor land on the correct
// bus segment.
package tree

import "encoding/json"

// Plan is the top-level document. Root nodes sit directly on the bus.
type Plan struct {
	Version int        `json:"version"`
	Nodes   []NodeSpec `json:"nodes"`
}

// NodeSpec describes one node. Channel is required for children of a
// multiplexer and forbidden everywhere else. Params carries a
// type-specific shape, decoded by the node's builder.
type NodeSpec struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Addr    uint16          `json:"addr,omitempty"`
	Channel *uint8          `json:"channel,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Nodes   []NodeSpec      `json:"nodes,omitempty"`
}

// ParsePlan decodes a JSON plan document.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
