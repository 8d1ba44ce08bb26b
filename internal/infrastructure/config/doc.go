// Package config handles loading, validating and saving the Heimdall backend
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with HEIMDALL_* environment variables
//   - Validation of required fields
//   - Writing the file back when settings change at runtime
//
// Security Considerations:
//   - The config file is written with 0600 permissions
//   - Viewer paths are executed by the launcher, so the file must not be
//     writable by other users
//
// Usage:
//
//	cfg, err := config.LoadOrInit("configs/heimdall.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
