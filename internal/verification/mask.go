package verification

const maskFill = "****"

// Mask hides the middle of a sensitive value: "12345678901" is shown as
// "123****901".
//
// Values shorter than six characters are shown in full followed by the fill.
// This matches what operators have always seen; it has not been confirmed as
// intended, so it is kept as is.
func Mask(value string) string {
	runes := []rune(value)
	if len(runes) < 6 {
		return value + maskFill
	}
	return string(runes[:3]) + maskFill + string(runes[len(runes)-3:])
}
