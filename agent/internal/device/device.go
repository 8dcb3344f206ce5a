// Package device derives a stable identifier for the machine the agent
// runs on.
package device

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Info is the subset of uname the id is derived from.
type Info struct {
	System  string
	Node    string
	Machine string
}

func (i Info) String() string { return fmt.Sprintf("%s-%s-%s", i.System, i.Node, i.Machine) }

const idLength = 12

// IDFrom returns a short url-safe id for info. The same machine always
// maps to the same id.
func IDFrom(info Info) string {
	sum := blake3.Sum256([]byte(info.String()))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:idLength]
}

// ID returns the id for this machine, or a random one when system
// information is unavailable.
func ID() string {
	info, err := uname()
	if err != nil || info.Node == "" {
		return uuid.NewString()[:idLength]
	}
	return IDFrom(info)
}
