// Package utils provides utility functions for the Rampart risk mitigation
// service. This file contains data conversion, transformation, and formatting
// utilities.
package utils

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ================================================================================
// String Conversion
// ================================================================================

// StringToInt converts a string to an integer with default value on error
func StringToInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// StringToInt64 converts a string to int64 with default value on error
func StringToInt64(s string, defaultValue int64) int64 {
	if val, err := strconv.ParseInt(s, 10, 64); err == nil {
		return val
	}
	return defaultValue
}

// StringToBool converts a string to boolean
func StringToBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// ================================================================================
// JSON Conversion
// ================================================================================

// ToJSONBytes converts an object to JSON bytes
func ToJSONBytes(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// FromJSONBytes parses JSON bytes into an object
func FromJSONBytes(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// ================================================================================
// Base64 Conversion
// ================================================================================

// Base64Encode encodes bytes to a standard base64 string
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode decodes a standard base64 string
func Base64Decode(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// ================================================================================
// Time Conversion
// ================================================================================

// TimeToUnix converts a time to a unix timestamp in seconds
func TimeToUnix(t time.Time) int64 {
	return t.Unix()
}

// TimeToISO8601 formats a time as RFC3339
func TimeToISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ================================================================================
// String Formatting
// ================================================================================

// Truncate shortens a string to maxLen runes, appending an ellipsis marker.
// Rune-aware so multi-byte input is never split mid-character.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// WordCount counts whitespace-separated tokens in a string
func WordCount(s string) int {
	return len(strings.Fields(s))
}
