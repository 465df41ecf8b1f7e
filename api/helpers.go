package api

import "strconv"

// parseDecimalUint parses the base-10 slot/epoch strings the Eth2 sign
// request bodies carry (spec §6).
func parseDecimalUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
