// Package detect implements the rule-based detector set. Detectors are pure
// functions over a single device record; they never touch the alert store or
// the watchlist.
package detect

import (
	"fmt"
	"strings"

	"github.com/arveo/kismet-sentinel/internal/models"
)

// droneKeywords are matched as substrings against the lowercased
// name+manufacturer of every device. First match wins.
var droneKeywords = []string{
	"dji", "parrot", "yuneec", "autel", "skydio", "bebop", "phantom",
	"mavic", "inspire", "matrice", "tello", "fpv", "drone", "uav",
	"ardupilot", "pixhawk", "droneid",
}

// uavPhy is the Kismet PHY name assigned to Remote-ID / drone-link captures.
const uavPhy = "UAV"

// StrongSignal is the dBm threshold above which a sighting is flagged.
// Higher dBm = stronger signal, so the comparison is strictly greater-than.
const StrongSignal = -60

// Candidate is one detector hit, not yet recorded as an alert.
type Candidate struct {
	Category models.Category
	Severity models.Severity
	Title    string
	Body     string
}

// Evaluate runs every detector rule against one device record and returns
// the hits in rule order. A device can trip several rules; no deduplication
// happens here.
func Evaluate(dev models.DeviceRecord) []Candidate {
	var out []Candidate

	name := dev.Name()
	mac := dev.MAC()
	phy := dev.Phy()
	manuf := dev.Manuf()
	signal := dev.LastSignal()

	label := name
	if label == "" {
		label = mac
	}

	// Rule 1: drone keyword in SSID or manufacturer.
	combined := strings.ToLower(name + " " + manuf)
	for _, kw := range droneKeywords {
		if strings.Contains(combined, kw) {
			out = append(out, Candidate{
				Category: models.CategoryDrone,
				Severity: models.SeverityCritical,
				Title:    "Drone detected: " + label,
				Body: fmt.Sprintf("MAC: %s | PHY: %s | Manuf: %s | Signal: %d dBm | Keyword matched: '%s'",
					mac, phy, manuf, signal, kw),
			})
			break
		}
	}

	// Rule 2: UAV PHY sighting. Independent of rule 1.
	if phy == uavPhy {
		out = append(out, Candidate{
			Category: models.CategoryDrone,
			Severity: models.SeverityCritical,
			Title:    "UAV PHY device: " + label,
			Body:     fmt.Sprintf("MAC: %s | Manuf: %s | Signal: %d dBm", mac, manuf, signal),
		})
	}

	// Rule 3: unusually strong signal.
	if signal > StrongSignal {
		out = append(out, Candidate{
			Category: models.CategorySignal,
			Severity: models.SeverityWarning,
			Title:    "Strong signal: " + label,
			Body:     fmt.Sprintf("MAC: %s | Signal: %d dBm | PHY: %s", mac, signal, phy),
		})
	}

	return out
}
