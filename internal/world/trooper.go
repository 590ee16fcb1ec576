package world

type TrooperStatus string

const (
	StatusActive     TrooperStatus = "ACTIVE"
	StatusInjured    TrooperStatus = "INJURED"
	StatusReserve    TrooperStatus = "RESERVE"
	StatusKIA        TrooperStatus = "KIA"
	StatusRecruiting TrooperStatus = "RECRUITING"
)

// Trooper is the occupant of one roster slot. Slots are a fixed-capacity
// arena: a death never frees the slot, it marks the occupant KIA until a
// replacement is installed with the generation counter bumped.
type Trooper struct {
	SlotNo     int           `json:"slot_no"`
	Generation int           `json:"generation"`
	Name       string        `json:"name"`
	Status     TrooperStatus `json:"status"`

	AgeDays       int `json:"age_days"`
	Fitness       int `json:"fitness"`
	Missions      int `json:"missions"`
	Commendations int `json:"commendations"`

	InstalledDay  int `json:"installed_day"`
	RecoveryDay   int `json:"recovery_day,omitempty"`
	GraduationDay int `json:"graduation_day,omitempty"`
}

// Ref identifies a specific occupant of a slot. Holding the generation makes
// references from before a replacement detectably stale.
type Ref struct {
	SlotNo     int `json:"slot_no"`
	Generation int `json:"generation"`
}

// Ref returns the trooper's own reference.
func (t *Trooper) Ref() Ref {
	return Ref{SlotNo: t.SlotNo, Generation: t.Generation}
}

// Deployable reports whether the trooper can be assigned to a squad.
func (t *Trooper) Deployable() bool {
	return t.Status == StatusActive
}

// ReplacementOrder decouples casualty detection from refill timing: slot
// SlotNo lost its occupant on EnqueuedDay and is due for a replacement on
// DueDay.
type ReplacementOrder struct {
	SlotNo      int `json:"slot_no"`
	DueDay      int `json:"due_day"`
	EnqueuedDay int `json:"enqueued_day"`
}
