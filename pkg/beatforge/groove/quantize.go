package groove

import "github.com/himanishpuri/beatforge/pkg/beatforge"

// QuantizeResult carries the quantized events plus the count of events
// dropped for falling outside the lookahead window — a count, not an
// error, per §7.
type QuantizeResult struct {
	Events       []beatforge.QuantizedEvent
	DroppedCount int
}

// Quantize snaps events onto the grid built from plan, applying strength
// and lookahead per §4.F. Event order is preserved; when two events land
// on the same slot+lane their strict monotonicity is restored downstream
// by the arranger (this function only guards against same-timestamp
// collisions within the stream itself).
func Quantize(events []beatforge.Event, plan beatforge.GridPlan, strength, lookaheadMs float64) QuantizeResult {
	slots := BuildSlots(plan)
	slotMs := plan.SlotMs()
	maxDistance := slotMs/2 + lookaheadMs

	result := QuantizeResult{Events: make([]beatforge.QuantizedEvent, 0, len(events))}
	var lastTimestamp float64 = -1

	for i, ev := range events {
		idx, slotTime := NearestSlot(slots, ev.TimestampMs)
		if idx < 0 {
			result.DroppedCount++
			continue
		}
		distance := abs(slotTime - ev.TimestampMs)
		if distance > maxDistance {
			result.DroppedCount++
			continue
		}

		snapDelta := strength * (slotTime - ev.TimestampMs)
		quantized := ev.TimestampMs + snapDelta

		if i > 0 && quantized <= lastTimestamp {
			quantized = lastTimestamp + 1
			snapDelta = quantized - ev.TimestampMs
		}
		lastTimestamp = quantized

		result.Events = append(result.Events, beatforge.QuantizedEvent{
			EventID:              ev.ID,
			OriginalTimestampMs:  ev.TimestampMs,
			QuantizedTimestampMs: quantized,
			SnapDeltaMs:          snapDelta,
			Event:                ev,
			GridPosition:         PositionOf(plan, idx),
		})
	}
	return result
}
