package hidtransport

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// HardwareStatus is the read-only probe result backing GET
// /api/hardware/status (spec §6). Grounded on
// original_source/src/infrastructure/setup/linux_board_detector.rs's
// check_usb_otg_status: presence of /dev/hidg*, UDC bind-node content, and
// dwc2/libcomposite module presence in /proc/modules.
type HardwareStatus struct {
	ConsoleConnected   bool
	GadgetAvailable    bool
	HIDDeviceAvailable bool
	Details            map[string]string
}

// ProbeHardware performs a best-effort, read-only scan. It never errors —
// an unreadable probe path is reported as absent (with a describing string
// in Details) rather than failing the whole status response, matching this endpoint's
// informational, non-authoritative role.
func ProbeHardware(hidDevicePath string) HardwareStatus {
	details := map[string]string{}

	hidAvailable := false
	if _, err := os.Stat(hidDevicePath); err == nil {
		hidAvailable = true
		details["hid_device"] = hidDevicePath
	} else {
		details["hid_device"] = "not found: " + hidDevicePath
	}

	gadgetAvailable := hasModules("dwc2", "libcomposite")
	if gadgetAvailable {
		details["gadget_modules"] = "dwc2,libcomposite loaded"
	} else {
		details["gadget_modules"] = "dwc2/libcomposite not both loaded"
	}

	udcBound, udcDetail := probeUDCBound()
	details["udc"] = udcDetail

	return HardwareStatus{
		ConsoleConnected:   hidAvailable && udcBound,
		GadgetAvailable:    gadgetAvailable,
		HIDDeviceAvailable: hidAvailable,
		Details:            details,
	}
}

func hasModules(names ...string) bool {
	f, err := os.Open("/proc/modules")
	if err != nil {
		return false
	}
	defer f.Close()

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = false
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if _, ok := want[fields[0]]; ok {
			want[fields[0]] = true
		}
	}

	for _, found := range want {
		if !found {
			return false
		}
	}
	return true
}

// probeUDCBound reads /sys/class/udc/*/state, grounded on
// linux_usb_gadget_manager.rs's UDC bind-state probing: a non-empty state
// file whose content is "configured" indicates an attached host.
func probeUDCBound() (bool, string) {
	entries, err := os.ReadDir("/sys/class/udc")
	if err != nil || len(entries) == 0 {
		return false, "no UDC present"
	}
	for _, entry := range entries {
		stateBytes, err := os.ReadFile(filepath.Join("/sys/class/udc", entry.Name(), "state"))
		if err != nil {
			continue
		}
		state := strings.TrimSpace(string(stateBytes))
		if state == "configured" {
			return true, "udc " + entry.Name() + ": " + state
		}
		return false, "udc " + entry.Name() + ": " + state
	}
	return false, "no UDC state readable"
}
