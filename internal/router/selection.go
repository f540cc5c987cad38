// selection.go: the winning-zone selection rule.
package router

import (
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/protocol"
)

// candidate binds a known sensor identity to its show variant suffix.
type candidate struct {
	sensorID string
	suffix   string
}

// priority is the fixed evaluation order. Ties break in favor of the
// earliest entry because only a strictly greater count displaces the
// current best.
var priority = []candidate{
	{"SENSORE001", "a"},
	{"SENSORE002", "b"},
	{"SENSORE003", "c"},
}

// SelectSuffix picks the show variant suffix for the zone with the
// strictly greatest count. Sensors missing from the snapshot count as 0.
func SelectSuffix(sensors []protocol.SensorCount) string {
	counts := make(map[string]int, len(sensors))
	for _, s := range sensors {
		counts[s.ID] = s.Count
	}

	bestCount := -1
	bestSuffix := ""
	for _, c := range priority {
		if counts[c.sensorID] > bestCount {
			bestCount = counts[c.sensorID]
			bestSuffix = c.suffix
		}
	}
	return bestSuffix
}
