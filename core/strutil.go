package core

// itoa formats n in decimal without fmt.
func itoa(n int) string {
	var buf [20]byte
	i := len(buf)

	u := uint64(n)
	if n < 0 {
		u = uint64(-n)
	}
	for {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
		if u == 0 {
			break
		}
	}
	if n < 0 {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// hex8 formats a byte as 0xNN
func hex8(b uint8) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{'0', 'x', digits[b>>4], digits[b&0xF]})
}
