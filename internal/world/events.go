package world

const (
	EventRoster   = "roster"
	EventMission  = "mission"
	EventCouncil  = "council"
	EventCeremony = "ceremony"
	EventSystem   = "system"
)

// Event is one bulletin line produced during a mutation. Events accumulate
// on the world while rules run and are drained into the bulletin log when
// the mutation commits.
type Event struct {
	Day  int    `json:"day"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Record appends a bulletin event stamped with the current simulated day.
func (w *World) Record(kind, text string) {
	w.Events = append(w.Events, Event{Day: w.CurrentDay, Kind: kind, Text: text})
}

// DrainEvents returns the accumulated events and clears the outbox.
func (w *World) DrainEvents() []Event {
	ev := w.Events
	w.Events = nil
	return ev
}
