// Copyright 2020 Hewlett Packard Enterprise Development LP

package logger

import "strings"

const mask = "**********"

// sensitiveWords are matched lower-case, as substrings of the key
var sensitiveWords = []string{
	"x-auth-token",
	"username",
	"user",
	"password",
	"passwd",
	"secret",
	"token",
	"accesskey",
	"passphrase",
	"credential",
}

// IsSensitive checks if the given key exists in the list of bad words (sensitive info)
func IsSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, bad := range sensitiveWords {
		if strings.Contains(key, bad) {
			return true
		}
	}
	return false
}

// Scrubber masks the whole argument list when any argument looks sensitive
func Scrubber(args []string) []string {
	for _, arg := range args {
		if IsSensitive(arg) {
			return []string{mask}
		}
	}
	return args
}

// MapScrubber returns a copy of m with the values of sensitive keys masked
func MapScrubber(m map[string]string) map[string]string {
	retMap := make(map[string]string, len(m))
	for k, v := range m {
		if IsSensitive(k) {
			v = mask
		}
		retMap[k] = v
	}
	return retMap
}
