package fn

// T is short for ternary
func T[V any](condition bool, trueVal, falseVal V) V {
	if condition {
		return trueVal
	}
	return falseVal
}

// Or returns the first value that is not the zero value, or the zero value.
func Or[V comparable](vals ...V) V {
	var zero V
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
