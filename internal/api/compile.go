package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/mbconv/internal/addrmap"
	"github.com/nerrad567/mbconv/internal/busconfig"
	"github.com/nerrad567/mbconv/internal/commissioning/devimport"
	"github.com/nerrad567/mbconv/internal/converter"
)

// CompileRequest is the body of POST /api/v1/compile.
type CompileRequest struct {
	ScriptName string          `json:"script_name"`
	Script     string          `json:"script"`
	Device     json.RawMessage `json:"device"`
}

// handleCompile compiles one device description and answers with the bus
// object. The run id and notice count are returned in headers.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeTooLarge(w, "request body too large")
			return
		}
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.ScriptName == "" {
		writeBadRequest(w, "script_name is required")
		return
	}
	if len(req.Device) == 0 || string(req.Device) == "null" {
		writeBadRequest(w, "device is required")
		return
	}

	script, err := devimport.ScriptFromBytes(req.ScriptName, []byte(req.Script))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := s.converter.Convert(r.Context(), converter.SourceAPI, req.Device, script)
	if err != nil {
		s.writeCompileError(w, err)
		return
	}

	if res.RunID != "" {
		w.Header().Set("X-Run-ID", res.RunID)
	}
	w.Header().Set("X-Notice-Count", strconv.Itoa(len(res.Notices())))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := busconfig.Encode(w, res.Bus, false); err != nil {
		s.logger.Warn("writing bus config response failed", "error", err)
	}
}

func (s *Server) writeCompileError(w http.ResponseWriter, err error) {
	var verr *addrmap.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, converter.ErrorKind(err), err.Error(), verr.Fields)
	case errors.Is(err, devimport.ErrDocumentTooLarge):
		writeTooLarge(w, err.Error())
	case errors.Is(err, devimport.ErrInvalidDocument):
		writeBadRequest(w, err.Error())
	default:
		s.logger.Error("compile failed", "error", err)
		writeInternalError(w, "compile failed")
	}
}
