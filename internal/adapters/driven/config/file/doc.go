// Package file loads extractor settings from a TOML config file.
//
// Settings resolve in three layers: built-in defaults, then the config
// file, then environment variables (SAILTAP_API_KEY, SAILTAP_API_SECRET,
// SAILTAP_ACCOUNT_NAME, SAILTAP_START_DATE) for values better kept out
// of files.
package file
