package detect

import (
	"testing"

	"github.com/arveo/kismet-sentinel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func device(name, manuf, phy string, signal int) models.DeviceRecord {
	return models.DeviceRecord{
		"kismet_device_base_macaddr": "60:60:1F:AA:BB:CC",
		"kismet_device_base_name":    name,
		"kismet_device_base_phyname": phy,
		"kismet_device_base_manuf":   manuf,
		"kismet_device_base_signal": map[string]any{
			"kismet_common_signal_last_signal": float64(signal),
		},
	}
}

func TestEvaluateDroneKeywordAndStrongSignal(t *testing.T) {
	// Known drone with a strong signal trips rule 1 and rule 3.
	hits := Evaluate(device("DJI-Mavic-3-Pro", "DJI Technology", "IEEE802.11", -38))
	require.Len(t, hits, 2)

	assert.Equal(t, models.CategoryDrone, hits[0].Category)
	assert.Equal(t, models.SeverityCritical, hits[0].Severity)
	assert.Contains(t, hits[0].Body, "'dji'")
	assert.Contains(t, hits[0].Body, "60:60:1F:AA:BB:CC")

	assert.Equal(t, models.CategorySignal, hits[1].Category)
	assert.Equal(t, models.SeverityWarning, hits[1].Severity)
	assert.Contains(t, hits[1].Body, "60:60:1F:AA:BB:CC")
}

func TestEvaluateKeywordInManufOnly(t *testing.T) {
	hits := Evaluate(device("", "Parrot SA", "IEEE802.11", -80))
	require.Len(t, hits, 1)
	assert.Equal(t, models.CategoryDrone, hits[0].Category)
	assert.Contains(t, hits[0].Body, "'parrot'")
	// Empty name falls back to MAC in the title.
	assert.Contains(t, hits[0].Title, "60:60:1F:AA:BB:CC")
}

func TestEvaluateUAVPhyWithoutKeyword(t *testing.T) {
	// PHY sentinel alone is enough, even with an innocuous name.
	hits := Evaluate(device("RemoteID-0x4F2A", "Acme", "UAV", -90))
	require.Len(t, hits, 1)
	assert.Equal(t, models.CategoryDrone, hits[0].Category)
	assert.Contains(t, hits[0].Title, "UAV PHY device")
}

func TestEvaluateKeywordAndPhyAreIndependent(t *testing.T) {
	// A DJI device on the UAV PHY produces two separate drone alerts.
	hits := Evaluate(device("UAV-RemoteID", "DJI Technology", "UAV", -90))
	require.Len(t, hits, 2)
	assert.Equal(t, models.CategoryDrone, hits[0].Category)
	assert.Equal(t, models.CategoryDrone, hits[1].Category)
}

func TestEvaluateSignalThresholdBoundary(t *testing.T) {
	// Strictly greater than -60: -59 fires, -60 and -61 do not.
	assert.Len(t, Evaluate(device("Printer", "HP", "IEEE802.11", -59)), 1)
	assert.Empty(t, Evaluate(device("Printer", "HP", "IEEE802.11", -60)))
	assert.Empty(t, Evaluate(device("Printer", "HP", "IEEE802.11", -61)))
}

func TestEvaluateQuietDevice(t *testing.T) {
	assert.Empty(t, Evaluate(device("iPhone-Sarah", "Apple", "IEEE802.11", -72)))
}

func TestEvaluateMalformedRecord(t *testing.T) {
	// No signal block, no strings: must not panic, must not alert
	// (missing signal defaults to -100).
	hits := Evaluate(models.DeviceRecord{
		"kismet_device_base_frequency": 2437,
		"kismet_device_base_signal":    "garbage",
	})
	assert.Empty(t, hits)
}
