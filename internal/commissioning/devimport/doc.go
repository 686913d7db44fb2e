// Package devimport reads Modbus device description documents and the bus
// scripts that accompany them.
//
// A device description is a JSON object holding the link settings of one
// device, its byte-order flags, the request planner thresholds and an array
// of points. Parsing checks that every required key is present and of the
// right type; the semantic checks (object types, address ranges, byte-order
// consistency) are left to package addrmap.
//
// # Usage
//
//	parser := devimport.NewParser(devimport.MaxDocumentSize)
//	doc, err := parser.ParseFile("meter.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := addrmap.Compile(doc.Input)
//
// Field paths in returned errors follow the document, e.g.
// "points[3].address".
package devimport
