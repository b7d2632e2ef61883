package character

import "github.com/multiverse-rpg/world-engine/internal/game"

// Cost is one resource component of an action price.
type Cost struct {
	Kind  game.ResourceKind `json:"kind"`
	Value int               `json:"value"`
}

// SkillCost converts a skill's price fields into a cost list, omitting
// zero components.
func SkillCost(s game.Skill) []Cost {
	costs := make([]Cost, 0, 3)
	if s.CostHealth > 0 {
		costs = append(costs, Cost{Kind: game.ResourceHealth, Value: s.CostHealth})
	}
	if s.CostEnergy > 0 {
		costs = append(costs, Cost{Kind: game.ResourceEnergy, Value: s.CostEnergy})
	}
	if s.CostActionPoints > 0 {
		costs = append(costs, Cost{Kind: game.ResourceActionPoints, Value: s.CostActionPoints})
	}
	return costs
}

// ValidateCost succeeds iff every component is currently payable.
func ValidateCost(costs []Cost, v *View) error {
	for _, c := range costs {
		if v.Current(c.Kind) < c.Value {
			return &InsufficientResourceError{Kind: c.Kind}
		}
	}
	return nil
}

// SpendCost debits every component or none: the list is validated first so
// a later shortfall cannot leave a partial debit behind.
func SpendCost(costs []Cost, v *View) error {
	if err := ValidateCost(costs, v); err != nil {
		return err
	}
	for _, c := range costs {
		v.set(c.Kind, v.Current(c.Kind)-c.Value)
	}
	return nil
}
