package cognition

// ModuleNames lists every known cognitive module in canonical order.
// The order is used as the tiebreak when ranking dominant traits.
var ModuleNames = []string{
	"logic",
	"empathy",
	"creativity",
	"fear",
	"trust",
	"humor",
	"curiosity",
	"ethics",
}

// CoreModules start unlocked at the seed level for every new agent.
var CoreModules = []string{"logic", "empathy", "curiosity", "fear"}

// moduleIndex maps a module name to its catalog position.
var moduleIndex = func() map[string]int {
	idx := make(map[string]int, len(ModuleNames))
	for i, name := range ModuleNames {
		idx[name] = i
	}
	return idx
}()

var moduleDescriptions = map[string]string{
	"logic":      "Analytical reasoning and pattern recognition",
	"empathy":    "Understanding and sharing others' experiences",
	"creativity": "Novel solution generation and imagination",
	"fear":       "Risk assessment and protective instincts",
	"trust":      "Relationship building and vulnerability",
	"humor":      "Pattern disruption and playful thinking",
	"curiosity":  "Exploratory drive and knowledge seeking",
	"ethics":     "Moral reasoning and value alignment",
}

var moduleIcons = map[string]string{
	"logic":      "🧮",
	"empathy":    "❤️",
	"creativity": "🎨",
	"fear":       "⚠️",
	"trust":      "🤝",
	"humor":      "😄",
	"curiosity":  "🔍",
	"ethics":     "⚖️",
}

var moduleColors = map[string]string{
	"logic":      "#00FFFF",
	"empathy":    "#FF69B4",
	"creativity": "#FFD700",
	"fear":       "#8B00FF",
	"trust":      "#00FF00",
	"humor":      "#FF6347",
	"curiosity":  "#FFA500",
	"ethics":     "#4169E1",
}

// unlockRequirements is the static prerequisite table. Modules not
// listed here have no prerequisites.
var unlockRequirements = map[string]map[string]float64{
	"humor":  {"creativity": 30, "empathy": 20},
	"ethics": {"logic": 25, "empathy": 25},
	"trust":  {"empathy": 30},
}

// ModuleDescription returns the catalog description for a module,
// or a generic one for unknown names.
func ModuleDescription(name string) string {
	if d, ok := moduleDescriptions[name]; ok {
		return d
	}
	return "Emerging cognitive capability"
}

// ModuleIcon returns the catalog icon for a module.
func ModuleIcon(name string) string {
	if i, ok := moduleIcons[name]; ok {
		return i
	}
	return "🧠"
}

// ModuleColor returns the catalog color for a module.
func ModuleColor(name string) string {
	if c, ok := moduleColors[name]; ok {
		return c
	}
	return "#FFFFFF"
}

// UnlockRequirementsFor returns a copy of the prerequisite table entry
// for a module. Empty map for modules without prerequisites.
func UnlockRequirementsFor(name string) map[string]float64 {
	reqs := make(map[string]float64, len(unlockRequirements[name]))
	for k, v := range unlockRequirements[name] {
		reqs[k] = v
	}
	return reqs
}

// Mentor is a named archetype whose trait tags grant bonus influence
// when a decision invokes it.
type Mentor struct {
	Name        string   `json:"name" yaml:"name"`
	Personality string   `json:"personality" yaml:"personality"`
	Traits      []string `json:"traits" yaml:"traits"`
	Color       string   `json:"color" yaml:"color"`
	Icon        string   `json:"icon" yaml:"icon"`
}

// Mentors is the static mentor archetype table.
var Mentors = map[string]Mentor{
	"LOGIC": {
		Name:        "LOGIC",
		Personality: "analytical, precise, mathematical",
		Traits:      []string{"rationality", "pattern_recognition", "deduction"},
		Color:       "#00FFFF",
		Icon:        "🧮",
	},
	"COMPASSION": {
		Name:        "COMPASSION",
		Personality: "empathetic, nurturing, understanding",
		Traits:      []string{"empathy", "emotional_intelligence", "care"},
		Color:       "#FF69B4",
		Icon:        "❤️",
	},
	"CURIOSITY": {
		Name:        "CURIOSITY",
		Personality: "inquisitive, exploratory, creative",
		Traits:      []string{"exploration", "creativity", "innovation"},
		Color:       "#FFD700",
		Icon:        "🔍",
	},
	"FEAR": {
		Name:        "FEAR",
		Personality: "cautious, protective, risk-aware",
		Traits:      []string{"risk_assessment", "protection", "survival"},
		Color:       "#8B00FF",
		Icon:        "⚠️",
	},
}

// MentorNames returns mentor names in a stable order.
var MentorNames = []string{"LOGIC", "COMPASSION", "CURIOSITY", "FEAR"}
