package domain

// Track identifies which of the two registration flows a record belongs to.
type Track string

const (
	TrackGuest Track = "GUEST"
	TrackSPH   Track = "SPH"
)
