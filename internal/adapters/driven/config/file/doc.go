// Package file provides file-based configuration storage using TOML.
package file
