// Package command implements the Command Engine (C5): resolving which
// commands are visible in a given chat, classifying free-form text against
// them via the LLM Adapter, and executing a matched command's scripted UI.
package command

import "botfleet/entity"

// Visible computes the set of commands a chat may currently invoke,
// applying spec.md §4.5's multi-command scoping rules.
func Visible(all []*entity.Command, activeMultiCommandId string) []*entity.Command {
	if activeMultiCommandId == "" {
		visible := make([]*entity.Command, 0, len(all))
		for _, c := range all {
			if c.IsActive {
				visible = append(visible, c)
			}
		}
		return visible
	}

	var parent *entity.Command
	for _, c := range all {
		if c.Id == activeMultiCommandId {
			parent = c
			break
		}
	}
	if parent == nil {
		// The multi-command was deleted out from under an active session;
		// behave as if nothing is active rather than erroring.
		return Visible(all, "")
	}

	visible := make([]*entity.Command, 0, len(all))
	for _, c := range all {
		if !c.IsActive {
			continue
		}
		if parent.AllowExternalCommands {
			if c.ParentMultiCommandId == parent.Id || c.ParentMultiCommandId == "" {
				visible = append(visible, c)
			}
		} else if c.ParentMultiCommandId == parent.Id {
			visible = append(visible, c)
		}
	}
	return visible
}

// MatchCallback finds the visible command named exactly by callback data —
// inline buttons carry a command name verbatim (spec.md §4.5).
func MatchCallback(visible []*entity.Command, data string) *entity.Command {
	for _, c := range visible {
		if c.Name == data {
			return c
		}
	}
	return nil
}
