package server

import (
	"context"
	"fmt"

	"github.com/lotas/tabtab/internal/applog"
	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/types"
)

// Saver stores open tabs and returns the browser ids of the saved ones.
type Saver interface {
	SaveTabs(ctx context.Context, open []types.OpenTab) ([]types.SavedTab, []int, error)
}

// Run handles popup requests from the extension until ctx is done: "save"
// stores the tabs and closes them, "group-by-host" groups them by host.
func (s *Server) Run(ctx context.Context, saver Saver) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.msgs:
			if err := s.handle(ctx, saver, msg); err != nil {
				applog.Error("ws.handle", err, "type", msg.Type)
			}
		}
	}
}

func (s *Server) handle(ctx context.Context, saver Saver, msg IncomingMsg) error {
	switch msg.Type {
	case TypeSave:
		tabs, err := ParseOpenTabs(msg)
		if err != nil {
			return err
		}
		_, ids, err := saver.SaveTabs(ctx, tabs)
		if err != nil {
			return err
		}
		return s.Close(ctx, ids)

	case TypeGroupByHost:
		tabs, err := ParseOpenTabs(msg)
		if err != nil {
			return err
		}
		_, err = s.GroupByHost(ctx, tabs)
		return err

	case TypeTabs:
		// Replies to Query; nothing here is waiting for them.

	case TypeAck:
		if msg.OK != nil && !*msg.OK {
			return fmt.Errorf("command %s failed: %s", msg.ID, msg.Error)
		}

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// GroupByHost sends one group command per host among tabs and returns the
// planned groups.
func (s *Server) GroupByHost(ctx context.Context, tabs []types.OpenTab) ([]types.HostGroup, error) {
	plan := grouping.PlanHostGroups(tabs)
	for _, g := range plan {
		if err := s.Group(ctx, g); err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Host, err)
		}
	}
	return plan, nil
}

// UngroupAll sends one ungroup command for every tab in tabs.
func (s *Server) UngroupAll(ctx context.Context, tabs []types.OpenTab) error {
	ids := make([]int, 0, len(tabs))
	for _, tab := range tabs {
		ids = append(ids, tab.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	return s.Ungroup(ctx, ids)
}
