// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package tenlog decodes tenhou.net/6 three-player match records into a
// typed, queryable form. The decoding core lives in the tenhou package;
// this package carries the module version.
package tenlog

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 1,
		Patch: 0,
		Build: semver.Commit(),
	}
)

func Version() semver.Version {
	return version
}
