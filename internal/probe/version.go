package probe

// ParseChartRef extracts the version from a composite chart identifier of
// the form "<chartName>-<version>", e.g. "istiod-1.28.2". Chart names may
// themselves contain dashes ("gateway-api-1.4.1"), so the version is the
// suffix after the rightmost dash that is followed by a digit. The boolean
// is false when no version token is present.
func ParseChartRef(ref string) (string, bool) {
	for i := len(ref) - 1; i > 0; i-- {
		if ref[i] != '-' {
			continue
		}
		suffix := ref[i+1:]
		if suffix != "" && suffix[0] >= '0' && suffix[0] <= '9' {
			return suffix, true
		}
	}
	return "", false
}
