package amem

import "time"

// nowUnix returns the current Unix timestamp used to stamp newly added
// nodes. Node timestamps are caller-observable (spec §3 node fields) so
// this is the only place wall-clock time enters the engine's write path.
func nowUnix() int64 {
	return time.Now().Unix()
}
