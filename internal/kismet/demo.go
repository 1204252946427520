package kismet

import (
	"math/rand"
	"time"

	"github.com/arveo/kismet-sentinel/internal/models"
)

// DemoDevices returns a canned device list used when no Kismet server is
// reachable and demo mode is on. It deliberately includes devices that trip
// every detector rule: keyword drones, a UAV-PHY Remote-ID beacon, strong
// APs and BTLE trackers.
func DemoDevices() []models.DeviceRecord {
	devices := []models.DeviceRecord{
		demoDevice("AA:BB:CC:11:22:33", "HomeNetwork_5G", "IEEE802.11", "Netgear", "Wi-Fi AP", "36", 5180, 48210, -42),
		demoDevice("AA:BB:CC:44:55:66", "ASUS_RT-AX86U", "IEEE802.11", "ASUSTek", "Wi-Fi AP", "1", 2412, 102847, -55),
		demoDevice("11:22:33:AA:BB:CC", "iPhone-Sarah", "IEEE802.11", "Apple", "Wi-Fi Client", "6", 2437, 8921, -58),
		demoDevice("22:33:44:BB:CC:DD", "Galaxy-S24", "IEEE802.11", "Samsung", "Wi-Fi Client", "11", 2462, 5432, -67),
		demoDevice("55:66:77:EE:FF:00", "TP-Link_Deco_M5", "IEEE802.11", "TP-Link", "Wi-Fi AP", "44", 5220, 67320, -48),
		demoDevice("77:88:99:00:11:22", "", "IEEE802.11", "Intel", "Wi-Fi Client", "6", 2437, 1572, -79),
		demoDevice("55:EE:66:FF:77:00", "UniFi-AP-Pro", "IEEE802.11", "Ubiquiti", "Wi-Fi AP", "48", 5240, 156000, -35),
		demoDevice("BB:CC:DD:44:55:66", "AirPods-Pro", "Bluetooth", "Apple", "BR/EDR", "", 2402, 3401, -45),
		demoDevice("CC:DD:EE:55:66:77", "Tile-Tracker", "BTLE", "Tile", "BLE", "", 2426, 890, -72),
		demoDevice("DD:EE:FF:66:77:88", "Fitbit-Sense2", "BTLE", "Fitbit", "BLE", "", 2426, 2105, -61),
		// Drones: keyword match, keyword match, UAV PHY.
		demoDevice("60:60:1F:AA:BB:CC", "DJI-Mavic-3-Pro", "IEEE802.11", "DJI Technology", "Wi-Fi AP", "149", 5745, 34100, -38),
		demoDevice("90:3A:E6:DD:EE:FF", "Parrot-ANAFI", "IEEE802.11", "Parrot SA", "Wi-Fi AP", "44", 5220, 12450, -52),
		demoDevice("A0:B1:C2:D3:E4:F5", "UAV-RemoteID-0x4F2A", "UAV", "DJI Technology", "UAV", "6", 2437, 8901, -41),
	}

	now := time.Now().Unix()
	for _, d := range devices {
		d["kismet_device_base_first_time"] = now - int64(rand.Intn(82800)+3600)
		d["kismet_device_base_last_time"] = now - int64(rand.Intn(600))
	}
	return devices
}

func demoDevice(mac, name, phy, manuf, typ, channel string, freq, packets, signal int) models.DeviceRecord {
	return models.DeviceRecord{
		"kismet_device_base_macaddr":       mac,
		"kismet_device_base_name":          name,
		"kismet_device_base_phyname":       phy,
		"kismet_device_base_manuf":         manuf,
		"kismet_device_base_type":          typ,
		"kismet_device_base_channel":       channel,
		"kismet_device_base_frequency":     float64(freq),
		"kismet_device_base_packets_total": float64(packets),
		"kismet_device_base_signal": map[string]any{
			"kismet_common_signal_last_signal": float64(signal),
			"kismet_common_signal_max_signal":  float64(signal + 10),
			"kismet_common_signal_min_signal":  float64(signal - 20),
		},
	}
}
