package game

// Stat names used by formulas, items and effects.
const (
	StatPhysicalStrength = "physical_strength"
	StatMentalStrength   = "mental_strength"
	StatLuck             = "luck"
	StatSpeed            = "speed"
	StatConcentration    = "concentration"
	StatFlowManipulation = "flow_manipulation"
	StatFlowConnection   = "flow_connection"
	StatKnowledge        = "knowledge"
	StatFlowResonance    = "flow_resonance"
	StatCharisma         = "charisma"
	StatKharma           = "kharma"
)

// DefaultStatValue is the base value every stat starts at.
const DefaultStatValue = 10

// Stats is the eleven-component stat vector shared by characters, item
// bonuses and effect modifiers. Embedded with a GORM prefix by its owners.
type Stats struct {
	PhysicalStrength int `json:"physical_strength"`
	MentalStrength   int `json:"mental_strength"`
	Luck             int `json:"luck"`
	Speed            int `json:"speed"`
	Concentration    int `json:"concentration"`
	FlowManipulation int `json:"flow_manipulation"`
	FlowConnection   int `json:"flow_connection"`
	Knowledge        int `json:"knowledge"`
	FlowResonance    int `json:"flow_resonance"`
	Charisma         int `json:"charisma"`
	Kharma           int `json:"kharma"`
}

// DefaultStats returns a vector with every stat at the default value.
func DefaultStats() Stats {
	return Stats{
		PhysicalStrength: DefaultStatValue,
		MentalStrength:   DefaultStatValue,
		Luck:             DefaultStatValue,
		Speed:            DefaultStatValue,
		Concentration:    DefaultStatValue,
		FlowManipulation: DefaultStatValue,
		FlowConnection:   DefaultStatValue,
		Knowledge:        DefaultStatValue,
		FlowResonance:    DefaultStatValue,
		Charisma:         DefaultStatValue,
		Kharma:           DefaultStatValue,
	}
}

// Get returns the named component. Unknown names yield 0.
func (s Stats) Get(name string) int {
	switch name {
	case StatPhysicalStrength:
		return s.PhysicalStrength
	case StatMentalStrength:
		return s.MentalStrength
	case StatLuck:
		return s.Luck
	case StatSpeed:
		return s.Speed
	case StatConcentration:
		return s.Concentration
	case StatFlowManipulation:
		return s.FlowManipulation
	case StatFlowConnection:
		return s.FlowConnection
	case StatKnowledge:
		return s.Knowledge
	case StatFlowResonance:
		return s.FlowResonance
	case StatCharisma:
		return s.Charisma
	case StatKharma:
		return s.Kharma
	}
	return 0
}

// Plus returns the component-wise sum of two vectors.
func (s Stats) Plus(o Stats) Stats {
	return Stats{
		PhysicalStrength: s.PhysicalStrength + o.PhysicalStrength,
		MentalStrength:   s.MentalStrength + o.MentalStrength,
		Luck:             s.Luck + o.Luck,
		Speed:            s.Speed + o.Speed,
		Concentration:    s.Concentration + o.Concentration,
		FlowManipulation: s.FlowManipulation + o.FlowManipulation,
		FlowConnection:   s.FlowConnection + o.FlowConnection,
		Knowledge:        s.Knowledge + o.Knowledge,
		FlowResonance:    s.FlowResonance + o.FlowResonance,
		Charisma:         s.Charisma + o.Charisma,
		Kharma:           s.Kharma + o.Kharma,
	}
}

// IsZero reports whether every component is zero.
func (s Stats) IsZero() bool {
	return s == Stats{}
}
