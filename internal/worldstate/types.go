package worldstate

// #region imports
import (
	"time"
)

// #endregion

// #region region

// Region is one named area of the world.
type Region struct {
	Name              string `json:"name"`
	CurrentConditions string `json:"currentConditions"`
	Prosperity        int    `json:"prosperity"` // 0-100
	Safety            int    `json:"safety"`     // 0-100
}

// #endregion

// #region character

// Relationship is a directed edge from one character to another.
type Relationship struct {
	Target   string   `json:"target"`
	Strength float64  `json:"strength"` // -100..100
	History  []string `json:"history,omitempty"`
}

// CharacterState tracks a named character's disposition and relationships.
type CharacterState struct {
	Name            string         `json:"name"`
	Status          string         `json:"status"`
	Mood            string         `json:"mood"`
	CurrentActivity string         `json:"currentActivity"`
	Relationships   []Relationship `json:"relationships,omitempty"`
}

// Relationship returns the directed edge to target, creating it at
// strength 0 when absent.
func (c *CharacterState) Relationship(target string) *Relationship {
	for i := range c.Relationships {
		if c.Relationships[i].Target == target {
			return &c.Relationships[i]
		}
	}
	c.Relationships = append(c.Relationships, Relationship{Target: target})
	return &c.Relationships[len(c.Relationships)-1]
}

// #endregion

// #region economy

// TradeRoute links two regions with activity and danger gauges.
type TradeRoute struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Activity int    `json:"activity"` // 0-100
	Danger   int    `json:"danger"`   // 0-100
}

// Market is a regional market with a coarse price index.
type Market struct {
	Region     string `json:"region"`
	PriceIndex int    `json:"priceIndex"` // 100 = baseline
}

// Economy bundles the world's economic state.
type Economy struct {
	Resources   map[string]int `json:"resources,omitempty"`
	TradeRoutes []TradeRoute   `json:"tradeRoutes,omitempty"`
	Markets     []Market       `json:"markets,omitempty"`
}

// #endregion

// #region event

// Event is an append-only world event record.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// #endregion

// #region snapshot

// Snapshot is one logical version of the world state. The updater works
// on a deep copy; only a gateway persist makes a new version durable.
type Snapshot struct {
	Version     int64            `json:"version"`
	Timestamp   time.Time        `json:"timestamp"`
	Regions     []Region         `json:"regions"`
	Characters  []CharacterState `json:"characters"`
	Economy     Economy          `json:"economy"`
	Environment string           `json:"environment"`
	Events      []Event          `json:"events,omitempty"`
}

// Clone returns a deep copy safe to mutate independently.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Regions = append([]Region(nil), s.Regions...)
	out.Characters = make([]CharacterState, len(s.Characters))
	for i, c := range s.Characters {
		cc := c
		cc.Relationships = make([]Relationship, len(c.Relationships))
		for j, r := range c.Relationships {
			rr := r
			rr.History = append([]string(nil), r.History...)
			cc.Relationships[j] = rr
		}
		out.Characters[i] = cc
	}
	if s.Economy.Resources != nil {
		out.Economy.Resources = make(map[string]int, len(s.Economy.Resources))
		for k, v := range s.Economy.Resources {
			out.Economy.Resources[k] = v
		}
	}
	out.Economy.TradeRoutes = append([]TradeRoute(nil), s.Economy.TradeRoutes...)
	out.Economy.Markets = append([]Market(nil), s.Economy.Markets...)
	out.Events = append([]Event(nil), s.Events...)
	return out
}

// Region returns the named region or nil.
func (s *Snapshot) Region(name string) *Region {
	for i := range s.Regions {
		if s.Regions[i].Name == name {
			return &s.Regions[i]
		}
	}
	return nil
}

// Character returns the named character, creating a neutral one when absent.
func (s *Snapshot) Character(name string) *CharacterState {
	for i := range s.Characters {
		if s.Characters[i].Name == name {
			return &s.Characters[i]
		}
	}
	s.Characters = append(s.Characters, CharacterState{
		Name:   name,
		Status: "active",
		Mood:   "neutral",
	})
	return &s.Characters[len(s.Characters)-1]
}

// #endregion

// #region clamp

// ClampGauge bounds a 0-100 gauge value.
func ClampGauge(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampStrength bounds a relationship strength to [-100, 100].
func ClampStrength(v float64) float64 {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}

// #endregion
