package agent

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Repeating the same tool call burns budget without progress. Calls are
// fingerprinted and the recent history is scanned for short cycles.
const (
	loopMinRepeats   = 3
	loopMaxPatternLn = 3
	loopWindow       = 12
)

type loopDetector struct {
	signatures []string
}

func newLoopDetector() *loopDetector { return &loopDetector{} }

// record fingerprints a dispatched call. Arguments are serialized with
// sorted keys so logically identical calls hash identically.
func (d *loopDetector) record(call ToolCall) {
	args, _ := json.Marshal(call.Args)
	sum := sha256.Sum256([]byte(call.Tool + "\x00" + string(args)))
	d.signatures = append(d.signatures, fmt.Sprintf("%x", sum[:8]))
	if len(d.signatures) > loopWindow {
		d.signatures = d.signatures[len(d.signatures)-loopWindow:]
	}
}

// looping reports whether the tail of the call history is a cycle of
// length 1 to loopMaxPatternLn repeated at least loopMinRepeats times.
func (d *loopDetector) looping() bool {
	for patLen := 1; patLen <= loopMaxPatternLn; patLen++ {
		need := patLen * loopMinRepeats
		if len(d.signatures) < need {
			continue
		}
		tail := d.signatures[len(d.signatures)-need:]
		pattern := tail[:patLen]
		match := true
		for i := patLen; i < need && match; i++ {
			if tail[i] != pattern[i%patLen] {
				match = false
			}
		}
		if match {
			return true
		}
	}
	return false
}
