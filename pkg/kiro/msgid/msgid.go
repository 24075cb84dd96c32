// Package msgid generates the synthetic "msg_<uuid-without-hyphens>"
// response identifiers shared by the streaming and non-stream paths.
package msgid

import "github.com/google/uuid"

// New returns a fresh "msg_" + hyphen-stripped UUIDv4.
func New() string {
	id := uuid.NewString()
	out := make([]byte, 0, 32)
	for i := 0; i < len(id); i++ {
		if id[i] != '-' {
			out = append(out, id[i])
		}
	}
	return "msg_" + string(out)
}
