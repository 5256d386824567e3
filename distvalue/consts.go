package distvalue

const (
	// DefaultRelativeMeanThreshold scales |finite mean| into the closeness
	// threshold used when combining near-duplicate deltas.
	DefaultRelativeMeanThreshold = 1e-14
	// DefaultRelativeRangeThreshold scales the finite support range into the
	// same threshold.
	DefaultRelativeRangeThreshold = 1e-12

	// MaxUROrder bounds the delta count accepted from the wire.
	MaxUROrder = 10000
)
