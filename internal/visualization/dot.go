// Package visualization renders cognitive trees in various output formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/protoloop/loopcore/internal/cognition"
)

// Format specifies the output format for tree rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// statusColors maps module status to DOT colors. Modules carrying their
// own catalog color override these.
var statusColors = map[cognition.ModuleStatus]string{
	cognition.StatusLocked:     "lightgray",
	cognition.StatusNascent:    "khaki",
	cognition.StatusDeveloping: "goldenrod",
	cognition.StatusActive:     "mediumseagreen",
	cognition.StatusMastered:   "steelblue",
}

// RenderDOT produces a Graphviz DOT representation of a neural tree.
// Prerequisite edges point from the requirement to the module it unlocks.
func RenderDOT(tree cognition.NeuralTree) string {
	var b strings.Builder
	b.WriteString("digraph loopcore {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	for _, node := range tree.Nodes {
		color := node.Color
		if color == "" {
			color = statusColors[node.Status]
		}
		if color == "" {
			color = "lightgray"
		}

		label := fmt.Sprintf("%s %s\\n%.1f", node.Icon, node.ID, node.Level)
		b.WriteString(fmt.Sprintf("  %q [label=%q, fillcolor=%q, tooltip=\"status=%s\"];\n",
			node.ID, label, color, node.Status))
	}
	b.WriteString("\n")

	seen := make(map[string]bool) // dedup "src|tgt"
	for _, link := range tree.Links {
		key := link.Source + "|" + link.Target
		if seen[key] {
			continue
		}
		seen[key] = true

		b.WriteString(fmt.Sprintf("  %q -> %q [weight=\"%.1f\", penwidth=\"%.1f\"];\n",
			link.Source, link.Target, link.Strength, 0.5+link.Strength*2))
	}

	b.WriteString(fmt.Sprintf("\n  label=\"loop %d  evolution %.1f\";\n", tree.LoopNumber, tree.EvolutionScore))
	b.WriteString("  labelloc=t;\n")
	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a generic map representation with nodes and links
// arrays, suitable for JSON encoding by callers.
func RenderJSON(tree cognition.NeuralTree) map[string]interface{} {
	nodes := make([]map[string]interface{}, 0, len(tree.Nodes))
	for _, node := range tree.Nodes {
		nodes = append(nodes, map[string]interface{}{
			"id":     node.ID,
			"level":  node.Level,
			"status": string(node.Status),
			"color":  node.Color,
			"icon":   node.Icon,
		})
	}

	links := make([]map[string]interface{}, 0, len(tree.Links))
	for _, link := range tree.Links {
		links = append(links, map[string]interface{}{
			"source":   link.Source,
			"target":   link.Target,
			"strength": link.Strength,
		})
	}

	return map[string]interface{}{
		"nodes":           nodes,
		"links":           links,
		"node_count":      len(nodes),
		"link_count":      len(links),
		"evolution_score": tree.EvolutionScore,
		"loop_number":     tree.LoopNumber,
	}
}
