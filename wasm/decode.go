package wasm

import "unicode/utf8"

// DecodeString converts a byte-payload string into binary form: each code
// point contributes one byte. Code points above 0xff have no defined
// meaning in the payload encoding and are narrowed to their low byte.
// Bytes that do not form valid UTF-8 pass through unchanged, so a string
// already holding raw binary decodes to exactly those bytes.
func DecodeString(s string) []byte {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf = append(buf, s[i])
		} else {
			buf = append(buf, byte(r))
		}
		i += size
	}
	return buf
}
