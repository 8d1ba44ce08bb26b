// Package settings serves and updates the user-editable part of the
// backend configuration (viewer paths, auto-start, port, logging).
//
// Updates arrive as partial JSON objects and are merged onto the live
// configuration, validated, and written back to the YAML config file before
// they take effect. A change of server port is persisted but only used
// after a restart.
package settings
