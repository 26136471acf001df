package codec

import (
	"github.com/ValentinKolb/stry/rpc/common"
)

// ValidatePayload checks a compress payload. The checks run in a fixed order
// over the whole payload and the first one that fails decides the status:
// ascii, then alphabetic, then lowercase. A payload containing any non-ascii
// byte is therefore always reported as StatusNonAscii.
func ValidatePayload(payload []byte) common.Status {
	for _, c := range payload {
		if c >= 0x80 {
			return common.StatusNonAscii
		}
	}
	for _, c := range payload {
		if !isAlphabetic(c) {
			return common.StatusNonAlphabetic
		}
	}
	for _, c := range payload {
		if c < 'a' || c > 'z' {
			return common.StatusNonLowercase
		}
	}
	return common.StatusOk
}

func isAlphabetic(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
