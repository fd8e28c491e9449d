package catalog

// Tier is a 0-5 implementation maturity level.
type Tier int

const (
	TierNotImplemented Tier = iota
	TierInitial
	TierRepeatable
	TierDefined
	TierManaged
	TierOptimized
)

// MaxTier is the highest maturity level a control can reach.
const MaxTier = TierOptimized

var tierNames = [...]string{
	"Not Implemented",
	"Initial",
	"Repeatable",
	"Defined",
	"Managed",
	"Optimized",
}

func (t Tier) String() string {
	return tierNames[ClampTier(int(t))]
}

// ClampTier bounds v to the 0-5 tier scale.
func ClampTier(v int) Tier {
	if v < int(TierNotImplemented) {
		return TierNotImplemented
	}
	if v > int(MaxTier) {
		return MaxTier
	}
	return Tier(v)
}
