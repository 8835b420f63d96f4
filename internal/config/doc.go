// Package config loads gitctx settings with viper.
//
// Precedence, lowest to highest: built-in defaults, a .gitctx.yaml found in
// the repository root or ~/.config/gitctx/, then GITCTX_* environment
// variables (GITCTX_MAX_BLOB_SIZE, GITCTX_PROVIDER, and so on). A missing
// config file is normal; everything runs on defaults.
package config
