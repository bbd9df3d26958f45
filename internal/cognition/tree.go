package cognition

// TreeNode is one module in the neural tree export.
type TreeNode struct {
	ID     string       `json:"id"`
	Level  float64      `json:"level"`
	Status ModuleStatus `json:"status"`
	Color  string       `json:"color"`
	Icon   string       `json:"icon"`
}

// TreeLink is a directed prerequisite edge (source unlocks target).
type TreeLink struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

// NeuralTree is the visualization-facing projection of a State.
type NeuralTree struct {
	Nodes          []TreeNode `json:"nodes"`
	Links          []TreeLink `json:"links"`
	EvolutionScore float64    `json:"evolution_score"`
	LoopNumber     int        `json:"loop_number"`
}

// NeuralTreeExport builds the neural tree projection. Nodes follow
// catalog order; links exist only where the prerequisite module is
// itself present in the state, with strength = target level / 100.
func (s *State) NeuralTreeExport() NeuralTree {
	tree := NeuralTree{
		Nodes:          make([]TreeNode, 0, len(s.Modules)),
		Links:          make([]TreeLink, 0),
		EvolutionScore: s.EvolutionScore,
		LoopNumber:     s.LoopNumber,
	}

	for _, name := range ModuleNames {
		m, ok := s.Modules[name]
		if !ok {
			continue
		}

		tree.Nodes = append(tree.Nodes, TreeNode{
			ID:     name,
			Level:  m.Level,
			Status: m.Status,
			Color:  m.Color,
			Icon:   m.Icon,
		})

		for _, req := range requirementNames(m) {
			if _, exists := s.Modules[req]; exists {
				tree.Links = append(tree.Links, TreeLink{
					Source:   req,
					Target:   name,
					Strength: m.Level / 100,
				})
			}
		}
	}

	return tree
}

// requirementNames returns prerequisite names in catalog order for
// deterministic link output.
func requirementNames(m *Module) []string {
	names := make([]string, 0, len(m.UnlockRequirements))
	for _, name := range ModuleNames {
		if _, ok := m.UnlockRequirements[name]; ok {
			names = append(names, name)
		}
	}
	// Requirements outside the catalog come last, unordered.
	for name := range m.UnlockRequirements {
		if _, known := moduleIndex[name]; !known {
			names = append(names, name)
		}
	}
	return names
}
