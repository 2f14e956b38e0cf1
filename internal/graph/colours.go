package graph

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/slnlint/internal/colour"
)

// MatchColours resolves the colour of every node bottom-up. A node's colour
// is its declared colour OR-ed with the colours of its references, and must
// be registered in chart. invalid lists the nodes that fail first; nodes
// that are invalid only because a reference is invalid are left out.
//
// With addMissing set, undeclared colours are registered as new base
// colours. The error is only set when that registration fails.
func MatchColours(g *ProjectGraph, chart *colour.Chart, addMissing bool, logger *slog.Logger) ([]*ProjectNode, map[int64]colour.Colour, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	colours := make(map[int64]colour.Colour, g.Count())
	var invalid []*ProjectNode

	for _, level := range g.EnumerateBottomUp() {
		for _, n := range level {
			deps := make([]colour.Colour, 0, len(n.References()))
			depsInvalid := false
			for _, ref := range n.References() {
				c := colours[ref.ID()]
				deps = append(deps, c)
				depsInvalid = depsInvalid || c.IsInvalid()
			}

			if depsInvalid {
				logger.Warn("references are invalid so the project is too", "project", n.Name())
				colours[n.ID()] = colour.Invalid
				continue
			}

			resolved, err := resolveColour(n, deps, chart, addMissing, logger)
			if err != nil {
				return nil, nil, err
			}
			resolved = checkClashes(n, resolved, chart, logger)

			logger.Debug("resolved project colour", "project", n.Name(), "id", n.ID(), "colour", resolved.Name)
			colours[n.ID()] = resolved
			if resolved.IsInvalid() {
				invalid = append(invalid, n)
			}
		}
	}

	return invalid, colours, nil
}

func resolveColour(n *ProjectNode, deps []colour.Colour, chart *colour.Chart, addMissing bool, logger *slog.Logger) (colour.Colour, error) {
	declared, ok := chart.ByName(n.Colour())
	if ok {
		combined, ok := chart.TryGetNewColour(declared, deps...)
		if !ok {
			logger.Error("no registered colour matches the combination",
				"project", n.Name(), "colour", declared.Name, "references", distinctNames(deps))
		}
		return combined, nil
	}

	if !addMissing {
		logger.Error("colour is not in the chart, marking invalid", "project", n.Name(), "colour", n.Colour())
		return colour.Invalid, nil
	}

	logger.Info("colour is not in the chart, adding it as a base colour", "project", n.Name(), "colour", n.Colour())
	added, err := chart.AddColour(n.Colour(), "Base colour", nil)
	if err != nil {
		return colour.Invalid, fmt.Errorf("adding colour for %s: %w", n.Name(), err)
	}
	return added, nil
}

func checkClashes(n *ProjectNode, resolved colour.Colour, chart *colour.Chart, logger *slog.Logger) colour.Colour {
	if resolved.IsInvalid() {
		return resolved
	}
	for _, name := range n.Details.ColourClashes {
		clash, ok := chart.ByName(name)
		if !ok {
			logger.Warn("clashing colour is not in the chart", "project", n.Name(), "colour", name)
			continue
		}
		if clash.Intersects(resolved) {
			logger.Error("project depends on a clashing colour, marking invalid",
				"project", n.Name(), "clash", clash.Name, "colour", resolved.Name)
			return colour.Invalid
		}
	}
	return resolved
}

func distinctNames(cs []colour.Colour) []string {
	seen := make(map[string]bool, len(cs))
	var out []string
	for _, c := range cs {
		if !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c.Name)
		}
	}
	return out
}
