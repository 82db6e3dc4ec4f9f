package server

import (
	"encoding/json"
	"fmt"

	"github.com/lotas/tabtab/internal/types"
)

// ParseOpenTabs decodes the tab list of a "tabs", "save" or "group-by-host"
// message. A message without tabs yields an empty list.
func ParseOpenTabs(msg IncomingMsg) ([]types.OpenTab, error) {
	tabs := []types.OpenTab{}
	if len(msg.Tabs) == 0 {
		return tabs, nil
	}
	if err := json.Unmarshal(msg.Tabs, &tabs); err != nil {
		return nil, fmt.Errorf("parse tabs: %w", err)
	}
	return tabs, nil
}
