package addrmap

import "fmt"

// Input is everything the compiler needs for one device.
type Input struct {
	Points     []Point
	Thresholds Thresholds
	ByteOrder  ByteOrderFlags
}

// Result is the compiled address map of one device.
type Result struct {
	// Descriptors has one entry per input point, in input order.
	Descriptors []PointDescriptor

	// Spans holds the spans of enabled points, in input order.
	Spans []AddressSpan

	Requests []ReadRequest
	Usage    RegisterClassUsage
	Endian   EndianCode
	Notices  []Notice
}

// EnabledPoints returns the number of points that take part in polling.
func (r *Result) EnabledPoints() int {
	return len(r.Spans)
}

// Compile classifies every point, plans the read requests and resolves the
// byte order. It either returns a complete Result or a *ValidationError;
// nothing is produced for a device that fails validation.
func Compile(in Input) (*Result, error) {
	if err := in.Thresholds.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Descriptors: make([]PointDescriptor, 0, len(in.Points)),
	}
	for i, p := range in.Points {
		c, err := Classify(p, &res.Usage)
		if err != nil {
			return nil, pointError(i, err)
		}
		res.Descriptors = append(res.Descriptors, c.Descriptor)
		if c.Span != nil {
			res.Spans = append(res.Spans, *c.Span)
		}
		if c.Notice != nil {
			res.Notices = append(res.Notices, *c.Notice)
		}
	}

	res.Requests = PlanReadRequests(res.Spans, in.Thresholds)

	code, err := ResolveEndian(res.Usage, in.ByteOrder)
	if err != nil {
		return nil, err
	}
	res.Endian = code

	return res, nil
}

func pointError(i int, err error) error {
	verr, ok := err.(*ValidationError) //nolint:errorlint // Classify returns *ValidationError unwrapped
	if !ok {
		return fmt.Errorf("points[%d]: %w", i, err)
	}
	return verr.WithPrefix(fmt.Sprintf("points[%d].", i))
}
