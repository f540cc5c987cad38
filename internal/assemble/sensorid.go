// sensorid.go: synthetic sensor identifiers assigned by per-tick rank.
package assemble

import "fmt"

// SensorID formats the synthetic identifier for a 1-based rank in the
// tick's serial sort order. The binding is per tick, not per device: if a
// device drops mid-session later ranks shift down. Preserved as is for
// protocol compatibility with the downstream consumer.
func SensorID(rank int) string {
	return fmt.Sprintf("SENSORE%03d", rank)
}
