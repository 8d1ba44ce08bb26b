package apiclient

import (
	"bytes"
	"encoding/json"
)

// rawEnvelope holds the three envelope fields undecoded so that each can be
// checked for presence and type before anything is trusted.
type rawEnvelope struct {
	Success json.RawMessage `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

var jsonNull = []byte("null")

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, jsonNull)
}

// decodeEnvelope validates the discriminant and returns the raw data field,
// which may be absent. success:false yields a *RemoteError; anything that is
// not a well-formed envelope yields an *EnvelopeError.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &EnvelopeError{Message: "response is not a JSON envelope: " + err.Error()}
	}

	if isAbsent(env.Success) {
		return nil, &EnvelopeError{Message: `response envelope is missing "success"`}
	}
	var success bool
	if err := json.Unmarshal(env.Success, &success); err != nil {
		return nil, &EnvelopeError{Message: `response envelope "success" is not a boolean`}
	}

	if !success {
		if isAbsent(env.Error) {
			return nil, &EnvelopeError{Message: "request failed without an error message"}
		}
		var msg string
		if err := json.Unmarshal(env.Error, &msg); err != nil {
			return nil, &EnvelopeError{Message: `response envelope "error" is not a string`}
		}
		return nil, &RemoteError{Message: msg}
	}

	return env.Data, nil
}

// decodeData types the data field of a successful envelope. Absent or null
// data is an *EnvelopeError.
func decodeData[T any](raw json.RawMessage) (T, error) {
	var out T
	if isAbsent(raw) {
		return out, &EnvelopeError{Message: msgFetchingData}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &EnvelopeError{Message: msgFetchingData + " " + err.Error()}
	}
	return out, nil
}
