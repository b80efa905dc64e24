package state

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// NewGroupID derives a stroke group id from the stroke's first point and a
// random UUID, so two peers starting at the same pixel still differ.
func NewGroupID(start Point) string {
	return fmt.Sprintf("g%d.%d-%s", int64(math.Round(start.X)), int64(math.Round(start.Y)), uuid.NewString())
}

// NewPeerID returns a random peer identity for transports that do not assign one.
func NewPeerID() string {
	return uuid.NewString()
}
