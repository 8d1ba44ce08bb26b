// Package apiclient is the typed HTTP client for the Heimdall backend.
//
// Every response body is a JSON envelope of the form
//
//	{"success": true, "data": ...}
//	{"success": false, "error": "message"}
//
// and the client turns it into either a typed value or one of four error
// classes:
//
//   - *ConfigurationError (ErrConfiguration): the client could not be built
//   - *HTTPError (ErrHTTP): the backend answered outside 2xx
//   - *EnvelopeError (ErrEnvelope): a 2xx body that breaks the envelope contract
//   - *RemoteError (ErrRemote): success:false, carrying the backend's message
//
// Resource endpoints live under {base}/api/. The control endpoints connect
// and disconnect are appended to the base URL as-is, so a base URL without a
// trailing slash yields e.g. "http://host:8080disconnect"; callers pass a
// base URL ending in "/" to reach them.
//
// The client adds no timeouts or retries. Cancellation is through ctx.
package apiclient
