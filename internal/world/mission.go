package world

type MissionStatus string

const (
	MissionOffered  MissionStatus = "OFFERED"
	MissionUnderway MissionStatus = "UNDERWAY"
)

// Mission is a patrol call. While OFFERED it blocks simulated time behind a
// MODAL pause; once accepted it runs until ResolveDay.
type Mission struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Status     MissionStatus `json:"status"`
	Hazard     int           `json:"hazard"`
	OfferedDay int           `json:"offered_day"`
	ResolveDay int           `json:"resolve_day,omitempty"`
	Squad      []Ref         `json:"squad,omitempty"`
}

// Decision is a pending council ruling. It blocks simulated time behind a
// DECISION pause until answered.
type Decision struct {
	ID        string           `json:"id"`
	Topic     string           `json:"topic"`
	Prompt    string           `json:"prompt"`
	Options   []DecisionOption `json:"options"`
	RaisedDay int              `json:"raised_day"`
}

type DecisionOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Option returns the option with the given id, or nil.
func (d *Decision) Option(id string) *DecisionOption {
	for i := range d.Options {
		if d.Options[i].ID == id {
			return &d.Options[i]
		}
	}
	return nil
}

// Ceremony is a pending commendation ceremony, raised behind a MODAL pause.
type Ceremony struct {
	ID        string `json:"id"`
	Honorees  []Ref  `json:"honorees"`
	RaisedDay int    `json:"raised_day"`
}
