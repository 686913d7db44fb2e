// Package addrmap compiles a device's flat list of Modbus data points into
// the runtime address map a polling master needs.
//
// Compilation happens in three steps, each exposed on its own so it can be
// tested in isolation:
//
//   - Classify maps one Point to an AddressSpan and a PointDescriptor and
//     records which register-width classes the device uses.
//   - PlanReadRequests merges the enabled spans into the fewest read
//     requests a single left-to-right greedy pass can produce, bounded by
//     the burst size (group) and tolerated gap (unused) of each class.
//   - ResolveEndian checks the byte-order flags of the register classes in
//     use for consistency and folds them into one EndianCode.
//
// Compile runs all three over a whole device.
//
// # Usage
//
//	res, err := addrmap.Compile(addrmap.Input{
//	    Points:     points,
//	    Thresholds: addrmap.Thresholds{GroupBit: 200, UnusedBit: 16, GroupReg: 60, UnusedReg: 8},
//	    ByteOrder:  flags,
//	})
//	if err != nil {
//	    var verr *addrmap.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Println(verr.Fields)
//	    }
//	    return err
//	}
//	for _, req := range res.Requests {
//	    fmt.Println(req)
//	}
//
// The package never renders text: descriptors are structured values and the
// descriptor strings are produced by the busconfig package.
//
// Thread Safety: every function is a pure transform of its arguments.
package addrmap
