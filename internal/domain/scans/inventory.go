package scans

// placeholderInventory is returned for every completed scan regardless of the
// video content. No recognition happens.
var placeholderInventory = [...]InventoryItem{
	{Name: "milk 2%", Confidence: 0.92, Include: true},
	{Name: "eggs", Confidence: 0.88, Include: true},
	{Name: "tortillas", Confidence: 0.83, Include: true},
}

// PlaceholderInventory returns a fresh copy of the fixed inventory list.
func PlaceholderInventory() []InventoryItem {
	out := make([]InventoryItem, len(placeholderInventory))
	copy(out, placeholderInventory[:])
	return out
}
