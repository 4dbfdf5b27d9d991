package telemetry

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/pthm-cable/savanna/systems"
)

// Digest fingerprints the field contents. Two runs with the same seed and
// config produce the same digest at the same step.
func Digest(w *systems.World) uint64 {
	h := xxhash.New()
	var buf [24]byte

	field := w.Field()
	for row := 0; row < field.Depth(); row++ {
		for col := 0; col < field.Width(); col++ {
			e, ok := field.GetAt(row, col)
			if !ok || !w.IsAlive(e) {
				continue
			}
			org := w.Organism(e)
			inf := w.Infection(e)

			binary.LittleEndian.PutUint32(buf[0:], uint32(row*field.Width()+col))
			buf[4] = org.Species
			buf[5] = uint8(org.Gender)
			buf[6] = uint8(inf.State)
			buf[7] = 0
			binary.LittleEndian.PutUint32(buf[8:], uint32(org.Age))
			binary.LittleEndian.PutUint32(buf[12:], uint32(org.Food))
			binary.LittleEndian.PutUint64(buf[16:], uint64(inf.Duration))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// DigestString returns Digest as a fixed-width hex string.
func DigestString(w *systems.World) string {
	return fmt.Sprintf("%016x", Digest(w))
}
