package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Downmix averages channels into dst and returns dst[:n], where n is the
// shortest channel length. dst is reallocated when too small.
func Downmix(dst []float64, channels [][]float64) []float64 {
	if len(channels) == 0 {
		return dst[:0]
	}

	n := len(channels[0])
	for _, ch := range channels[1:] {
		n = min(n, len(ch))
	}

	dst = EnsureLen(dst, n)
	copy(dst, channels[0][:n])

	for _, ch := range channels[1:] {
		for i := range dst {
			dst[i] += ch[i]
		}
	}

	if len(channels) > 1 {
		scale := 1 / float64(len(channels))
		for i := range dst {
			dst[i] *= scale
		}
	}

	return dst
}
