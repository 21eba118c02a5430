// Package config loads and validates the CrashLink bridge configuration.
package config
