package policy

// ThresholdPolicyViolation is returned when a protocol entry's supplied
// (N,f,t) or participant set disagrees with a prior KeygenOutput's
// persisted state (spec section 4.6). It aborts before any message is
// sent.
type ThresholdPolicyViolation struct {
	Reason string
}

func (e *ThresholdPolicyViolation) Error() string {
	return "threshold policy violation: " + e.Reason
}

// ParameterError is returned for structurally invalid parameters: a bad
// t, a duplicate participant, or an empty participant set (spec section
// 7).
type ParameterError struct {
	Reason string
}

func (e *ParameterError) Error() string {
	return "parameter error: " + e.Reason
}
