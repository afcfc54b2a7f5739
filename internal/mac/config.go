package mac

// Config mirrors the configuration surface spec.md §6 enumerates for the
// retry controller. MinBE and MaxBE are retained as named fields for
// fidelity with the original's macMinBE/macMaxBE, but per the Open
// Questions resolution recorded in DESIGN.md, this controller's backoff is
// the original's flat uniform(1..20) (aloha.c's schedule_transmission),
// not a binary-exponential one — MinBE/MaxBE are not read by
// scheduleTransmission.
type Config struct {
	MinBE                uint8
	MaxBE                uint8
	MaxBackoff           uint8
	MaxFrameRetries      uint8
	MaxNeighborQueues    int
	MaxPacketPerNeighbor int
}

// DefaultConfig returns the defaults named in spec.md §6.
func DefaultConfig() Config {
	return Config{
		MinBE:                0,
		MaxBE:                4,
		MaxBackoff:           5,
		MaxFrameRetries:      7,
		MaxNeighborQueues:    2,
		MaxPacketPerNeighbor: 16,
	}
}
