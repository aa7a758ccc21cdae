package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrEncodeResponse marks a RespondJSON failure to encode, as opposed to a
// failure to write.
var ErrEncodeResponse = errors.New("encode response")

// RespondJSON writes payload as JSON with the given status.
//
// payload is encoded before anything is written. When encoding fails the
// client gets a 500 error body instead and the returned error matches
// [ErrEncodeResponse]. A write error is returned as is.
func RespondJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	w.Header().Set("Content-Type", "application/json")
	if err := enc.Encode(payload); err != nil {
		code, body := InternalServerError()
		buf.Reset()
		_ = enc.Encode(body)
		w.WriteHeader(code)
		_, _ = w.Write(buf.Bytes())
		return errors.Join(ErrEncodeResponse, err)
	}

	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// RespondJSONAndLog is RespondJSON that logs failures: encoding at error
// level, writes (usually a client gone away) at debug.
func RespondJSONAndLog(w http.ResponseWriter, logger zerolog.Logger, status int, payload any) {
	err := RespondJSON(w, status, payload)
	switch {
	case err == nil:
	case errors.Is(err, ErrEncodeResponse):
		logger.Error().Err(err).Msg("failed to encode JSON response")
	default:
		logger.Debug().Err(err).Msg("failed to respond with JSON")
	}
}

// ReturnError calls errorFunc and writes the result.
func ReturnError(w http.ResponseWriter, logger zerolog.Logger, errorFunc func() (int, ErrorResponse)) {
	status, errResp := errorFunc()
	RespondJSONAndLog(w, logger, status, errResp)
}
