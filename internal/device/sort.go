package device

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortByName orders devices in place by name using locale-aware collation
// (root locale). Devices with equal names keep their relative order.
func SortByName(devices []Device) {
	// A Collator keeps internal buffers and is not safe for concurrent use.
	c := collate.New(language.Und)
	sort.SliceStable(devices, func(i, j int) bool {
		return c.CompareString(devices[i].Name, devices[j].Name) < 0
	})
}

// SortedByName returns a sorted copy of devices.
func SortedByName(devices []Device) []Device {
	out := make([]Device, len(devices))
	copy(out, devices)
	SortByName(out)
	return out
}

func sortByID(devices []Device) {
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ID < devices[j].ID
	})
}
