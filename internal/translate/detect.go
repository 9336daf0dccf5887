package translate

// ContainsThai reports whether text has any rune in the Thai block U+0E00-U+0E7F
func ContainsThai(text string) bool {
	for _, r := range text {
		if r >= 0x0E00 && r <= 0x0E7F {
			return true
		}
	}
	return false
}
