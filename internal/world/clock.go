package world

// DefaultDayLengthMS is the wall-clock length of one simulated day at 1x.
const DefaultDayLengthMS = int64(20 * 60 * 1000)

// DayLengthMS returns the effective wall-clock length of one simulated day,
// shortened by the world's time scale.
func (w *World) DayLengthMS(baseMS int64) int64 {
	scale := int64(w.TimeScale)
	if scale < 1 {
		scale = DefaultTimeScale
	}
	return baseMS / scale
}

// PendingDays returns how many whole simulated days have elapsed since the
// last tick. A paused world never has pending days.
func (w *World) PendingDays(nowMS, baseMS int64) int {
	if w.Pause != nil {
		return 0
	}
	elapsed := nowMS - w.LastTickMS
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / w.DayLengthMS(baseMS))
}

// AdvanceDay materializes one simulated day, moving the reference clock by
// exactly one day length so the sub-day remainder is preserved.
func (w *World) AdvanceDay(baseMS int64) {
	w.LastTickMS += w.DayLengthMS(baseMS)
	w.CurrentDay++
}
