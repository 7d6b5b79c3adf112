// Package gattnames resolves attribute handles to human-readable names.
//
// The core problem: a capture identifies attributes only by 16-bit handles,
// and handle 0x000d might be a battery level, a vendor command channel, or
// anything else. The assignment is per-device and not in any static table.
//
// The solution: harvest the handle/UUID pairs that the protocol itself
// discloses. Find Information Responses enumerate descriptors as explicit
// handle/UUID pairs; every pair observed in the capture is recorded, and
// handles are cross-referenced against the well-known 16-bit UUID names from
// the specification's assigned numbers.
//
// This is imperfect (it only names handles that appeared in discovery
// traffic, and vendor UUIDs have no registered names) but practical: reports
// of captures that include the discovery phase annotate the interesting
// handles at no extra cost. Attribute values are never interpreted; only
// protocol fields feed the resolver.
package gattnames

// wellKnown names the assigned 16-bit UUIDs that show up in everyday GATT
// traffic: declarations, descriptors, and the GAP/GATT characteristics.
var wellKnown = map[uint16]string{
	0x1800: "Generic Access",
	0x1801: "Generic Attribute",

	0x2800: "Primary Service",
	0x2801: "Secondary Service",
	0x2802: "Include",
	0x2803: "Characteristic Declaration",

	0x2900: "Characteristic Extended Properties",
	0x2901: "Characteristic User Description",
	0x2902: "Client Characteristic Configuration",
	0x2903: "Server Characteristic Configuration",
	0x2904: "Characteristic Presentation Format",
	0x2905: "Characteristic Aggregate Format",

	0x2a00: "Device Name",
	0x2a01: "Appearance",
	0x2a02: "Peripheral Privacy Flag",
	0x2a03: "Reconnection Address",
	0x2a04: "Peripheral Preferred Connection Parameters",
	0x2a05: "Service Changed",
	0x2a19: "Battery Level",
	0x2a24: "Model Number String",
	0x2a25: "Serial Number String",
	0x2a26: "Firmware Revision String",
	0x2a27: "Hardware Revision String",
	0x2a28: "Software Revision String",
	0x2a29: "Manufacturer Name String",
}

type handleKey struct {
	conn   int
	handle uint16
}

// Resolver accumulates handle/UUID pairs per connection and answers name
// lookups. Ingestion happens via AddPair (the dissector's HandleSink);
// resolution via Lookup, as late as possible so the whole capture's
// discovery traffic has been seen.
type Resolver struct {
	uuids map[handleKey]uint16
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{uuids: make(map[handleKey]uint16)}
}

// AddPair records a handle/UUID association disclosed by discovery traffic.
func (r *Resolver) AddPair(conn int, handle uint16, uuid16 uint16) {
	r.uuids[handleKey{conn, handle}] = uuid16
}

// Lookup returns the well-known name for a handle on a connection, or ""
// when the handle never appeared in discovery traffic or its UUID has no
// registered name.
func (r *Resolver) Lookup(conn int, handle uint16) string {
	u, ok := r.uuids[handleKey{conn, handle}]
	if !ok {
		return ""
	}
	return wellKnown[u]
}
