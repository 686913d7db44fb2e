// Package busconfig assembles the bus object consumed by the field
// controller runtime from a compiled address map.
//
// The runtime reads three descriptor strings, one per bus, device and point.
// Each is a sequence of key=value assignments joined by ",\n" and parsed by
// the bus script as a Lua table body, for example:
//
//	slave=1,
//	timeout=1000,
//	endian=2,
//	readreqs={
//	{3, 0, 3},
//	{3, 10, 1},
//	}
//
// Strings are rendered only here; everything upstream works on the
// structured model in package addrmap.
package busconfig
