package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nerrad567/mbconv/internal/addrmap"
	"github.com/nerrad567/mbconv/internal/busconfig"
	"github.com/nerrad567/mbconv/internal/commissioning/devimport"
	"github.com/nerrad567/mbconv/internal/history"
	"github.com/nerrad567/mbconv/internal/infrastructure/config"
	"github.com/nerrad567/mbconv/internal/infrastructure/influxdb"
	"github.com/nerrad567/mbconv/internal/infrastructure/logging"
)

// Source identifies what triggered a compile.
type Source string

// Compile sources.
const (
	SourceCLI Source = "cli"
	SourceAPI Source = "api"
)

// RunRecorder stores the outcome of every compile.
type RunRecorder interface {
	Create(ctx context.Context, run *history.Run) error
}

// BusPublisher distributes successfully compiled bus objects.
type BusPublisher interface {
	PublishBusConfig(device string, payload []byte) error
}

// MetricsWriter records per-compile statistics.
type MetricsWriter interface {
	WriteCompileRun(m influxdb.CompileMetric)
}

// Options are the installation-wide compile settings.
type Options struct {
	// MaxDocumentSize bounds device descriptions; 0 selects the default.
	MaxDocumentSize int

	// ScriptGlob finds the bus script next to a device file.
	ScriptGlob string

	// Bus holds the transport defaults written into bus objects.
	Bus busconfig.Options
}

// OptionsFromConfig maps the converter section of the application config.
func OptionsFromConfig(cfg config.ConverterConfig) Options {
	return Options{
		MaxDocumentSize: cfg.MaxDocumentSize,
		ScriptGlob:      cfg.ScriptGlob,
		Bus: busconfig.Options{
			SerialResource: cfg.SerialResource,
			TCPListen:      cfg.TCPListen,
		},
	}
}

// Deps holds the dependencies of a Converter. Only Logger is required.
type Deps struct {
	Options   Options
	Logger    *logging.Logger
	Recorder  RunRecorder
	Publisher BusPublisher
	Metrics   MetricsWriter
}

// Result is a successful compile.
type Result struct {
	// RunID is the history id of the run; empty without a RunRecorder.
	RunID string

	Bus      *busconfig.BusConfig
	Compile  *addrmap.Result
	Duration time.Duration
}

// Notices returns the advisory findings of the compile.
func (r *Result) Notices() []addrmap.Notice {
	return r.Compile.Notices
}

// Converter compiles device descriptions. It holds no per-run state and is
// safe for concurrent use.
type Converter struct {
	opts      Options
	parser    *devimport.Parser
	logger    *logging.Logger
	recorder  RunRecorder
	publisher BusPublisher
	metrics   MetricsWriter
}

// New creates a Converter.
func New(deps Deps) (*Converter, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Converter{
		opts:      deps.Options,
		parser:    devimport.NewParser(deps.Options.MaxDocumentSize),
		logger:    deps.Logger.With("component", "converter"),
		recorder:  deps.Recorder,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
	}, nil
}

// MaxDocumentSize returns the largest accepted device description in bytes.
func (c *Converter) MaxDocumentSize() int {
	return c.parser.MaxSize()
}

// ConvertFile compiles a device description from disk. An empty scriptPath
// selects the first script matching the configured glob in the device
// file's directory.
func (c *Converter) ConvertFile(ctx context.Context, devicePath, scriptPath string) (*Result, error) {
	return c.run(ctx, SourceCLI, func() (*devimport.Document, busconfig.Script, error) {
		doc, err := c.parser.ParseFile(devicePath)
		if err != nil {
			return nil, busconfig.Script{}, err
		}
		if scriptPath == "" {
			scriptPath, err = devimport.FindScript(filepath.Dir(devicePath), c.opts.ScriptGlob)
			if err != nil {
				return doc, busconfig.Script{}, err
			}
		}
		script, err := devimport.LoadScript(scriptPath)
		return doc, script, err
	})
}

// Convert compiles a device description held in memory.
func (c *Converter) Convert(ctx context.Context, source Source, document []byte, script busconfig.Script) (*Result, error) {
	return c.run(ctx, source, func() (*devimport.Document, busconfig.Script, error) {
		doc, err := c.parser.ParseBytes(document)
		return doc, script, err
	})
}

type loader func() (*devimport.Document, busconfig.Script, error)

func (c *Converter) run(ctx context.Context, source Source, load loader) (*Result, error) {
	start := time.Now()
	run := &history.Run{Source: string(source)}

	doc, script, err := load()
	if doc != nil {
		run.DeviceName = doc.Settings.Device.Name
		run.Transport = transportOf(doc.Settings).String()
	}
	run.ScriptName = script.Name

	var res *Result
	if err == nil {
		res, err = c.compile(doc, script)
	}
	run.Duration = time.Since(start)

	if res != nil {
		res.Duration = run.Duration
		run.PointCount = len(res.Compile.Descriptors)
		run.EnabledPoints = res.Compile.EnabledPoints()
		run.RequestCount = len(res.Compile.Requests)
		run.Endian = int(res.Compile.Endian)
		run.NoticeCount = len(res.Compile.Notices)
	}
	describeOutcome(run, err)

	c.report(ctx, run, res)
	if err != nil {
		c.logger.Warn("compile failed",
			"device", run.DeviceName,
			"source", run.Source,
			"status", run.Status,
			"error", err,
		)
		return nil, err
	}

	c.logger.Info("compiled device",
		"device", run.DeviceName,
		"transport", run.Transport,
		"points", run.PointCount,
		"enabled", run.EnabledPoints,
		"requests", run.RequestCount,
		"endian", run.Endian,
		"duration", run.Duration,
	)
	return res, nil
}

func (c *Converter) compile(doc *devimport.Document, script busconfig.Script) (*Result, error) {
	res, err := addrmap.Compile(doc.Input)
	if err != nil {
		return nil, err
	}

	for _, n := range res.Notices {
		c.logger.Info("point notice",
			"device", doc.Settings.Device.Name,
			"point", n.Point,
			"enabled", n.Enabled,
			"message", n.Message,
		)
	}

	if line := doc.Settings.Serial; line != nil {
		mode, err := line.Mode()
		if err != nil {
			return nil, addrmap.Invalid(addrmap.ErrInvalidInput, err.Error(), "parity")
		}
		c.logger.Debug("serial line",
			"device", doc.Settings.Device.Name,
			"baudrate", mode.BaudRate,
			"data_bits", mode.DataBits,
			"parity", mode.Parity,
			"frame_ms", line.FrameMs(),
		)
	}

	return &Result{
		Bus:     busconfig.Assemble(doc.Settings, script, res, c.opts.Bus),
		Compile: res,
	}, nil
}

// report hands the run to the configured sinks. Failures are logged only.
func (c *Converter) report(ctx context.Context, run *history.Run, res *Result) {
	if c.recorder != nil {
		if err := c.recorder.Create(ctx, run); err != nil {
			c.logger.Warn("recording compile run failed", "device", run.DeviceName, "error", err)
		} else if res != nil {
			res.RunID = run.ID
		}
	}

	if c.publisher != nil && res != nil {
		var buf bytes.Buffer
		if err := busconfig.Encode(&buf, res.Bus, false); err != nil {
			c.logger.Warn("encoding bus config for publish failed", "device", run.DeviceName, "error", err)
		} else if err := c.publisher.PublishBusConfig(run.DeviceName, buf.Bytes()); err != nil {
			c.logger.Warn("publishing bus config failed", "device", run.DeviceName, "error", err)
		}
	}

	if c.metrics != nil {
		c.metrics.WriteCompileRun(influxdb.CompileMetric{
			Device:    run.DeviceName,
			Source:    run.Source,
			Status:    string(run.Status),
			Transport: run.Transport,
			Points:    run.PointCount,
			Enabled:   run.EnabledPoints,
			Requests:  run.RequestCount,
			Notices:   run.NoticeCount,
			Duration:  run.Duration,
		})
	}
}

func transportOf(s busconfig.Settings) busconfig.Transport {
	if s.Serial != nil {
		return busconfig.TransportSerial
	}
	return busconfig.TransportTCP
}

// describeOutcome fills the status and error columns of a run.
func describeOutcome(run *history.Run, err error) {
	if err == nil {
		run.Status = history.StatusOK
		return
	}

	run.ErrorMessage = err.Error()
	run.ErrorKind = ErrorKind(err)

	var verr *addrmap.ValidationError
	switch {
	case errors.As(err, &verr):
		run.Status = history.StatusInvalid
		run.ErrorFields = verr.Fields
	case errors.Is(err, devimport.ErrDocumentTooLarge), errors.Is(err, devimport.ErrInvalidDocument):
		run.Status = history.StatusInvalid
	default:
		run.Status = history.StatusError
	}
}

// ErrorKind returns a stable machine-readable name for a compile failure.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, addrmap.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, addrmap.ErrUnsupportedPoint):
		return "unsupported_point"
	case errors.Is(err, addrmap.ErrByteOrderConflict):
		return "byte_order_conflict"
	case errors.Is(err, addrmap.ErrInvalidThreshold):
		return "invalid_threshold"
	case errors.Is(err, devimport.ErrDocumentTooLarge):
		return "document_too_large"
	case errors.Is(err, devimport.ErrInvalidDocument):
		return "invalid_document"
	case errors.Is(err, devimport.ErrNoScript):
		return "no_script"
	case errors.Is(err, devimport.ErrEncodingError):
		return "encoding_error"
	default:
		return "internal_error"
	}
}
