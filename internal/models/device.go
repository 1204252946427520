package models

// DeviceRecord is one device as reported by Kismet's ekjson endpoints: a flat
// JSON object keyed by kismet_device_base_* fields. It is owned by the
// upstream server and read-only here; accessors tolerate missing or
// mistyped fields so one malformed record never aborts a batch.
type DeviceRecord map[string]any

// Kismet field names used by the core.
const (
	fieldMAC       = "kismet_device_base_macaddr"
	fieldName      = "kismet_device_base_name"
	fieldPhy       = "kismet_device_base_phyname"
	fieldManuf     = "kismet_device_base_manuf"
	fieldType      = "kismet_device_base_type"
	fieldChannel   = "kismet_device_base_channel"
	fieldFrequency = "kismet_device_base_frequency"
	fieldPackets   = "kismet_device_base_packets_total"
	fieldFirstTime = "kismet_device_base_first_time"
	fieldLastTime  = "kismet_device_base_last_time"
	fieldSignal    = "kismet_device_base_signal"

	fieldLastSignal = "kismet_common_signal_last_signal"
)

// noSignal is reported when a record carries no signal block.
const noSignal = -100

func (d DeviceRecord) str(key string) string {
	s, _ := d[key].(string)
	return s
}

// number coerces a JSON numeric field; encoding/json decodes numbers as
// float64 but hand-built test fixtures may use int.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// MAC returns the hardware address, unique per physical device.
func (d DeviceRecord) MAC() string { return d.str(fieldMAC) }

// Name returns the display name; may be empty.
func (d DeviceRecord) Name() string { return d.str(fieldName) }

// Phy returns the link-layer technology tag ("IEEE802.11", "BTLE", "UAV", ...).
func (d DeviceRecord) Phy() string { return d.str(fieldPhy) }

// Manuf returns the manufacturer string.
func (d DeviceRecord) Manuf() string { return d.str(fieldManuf) }

// Type returns the Kismet device type ("Wi-Fi AP", "BLE", ...).
func (d DeviceRecord) Type() string { return d.str(fieldType) }

// Label returns the display name, falling back to the MAC, then "unknown".
func (d DeviceRecord) Label() string {
	if n := d.Name(); n != "" {
		return n
	}
	if m := d.MAC(); m != "" {
		return m
	}
	return "unknown"
}

// LastSignal returns the last-seen signal strength in dBm (lower = weaker),
// or -100 when the record carries no usable signal block.
func (d DeviceRecord) LastSignal() int {
	sig, ok := d[fieldSignal].(map[string]any)
	if !ok {
		return noSignal
	}
	n, ok := number(sig[fieldLastSignal])
	if !ok {
		return noSignal
	}
	return int(n)
}

// Detail extracts the identity fields included in alert-save payloads.
func (d DeviceRecord) Detail() map[string]any {
	return map[string]any{
		"mac":           d[fieldMAC],
		"name":          d[fieldName],
		"phyname":       d[fieldPhy],
		"manuf":         d[fieldManuf],
		"type":          d[fieldType],
		"channel":       d[fieldChannel],
		"frequency":     d[fieldFrequency],
		"signal":        d[fieldSignal],
		"first_time":    d[fieldFirstTime],
		"last_time":     d[fieldLastTime],
		"packets_total": d[fieldPackets],
	}
}
