package tx

import "fmt"

// errWrongHashLength reports a Hash decoded from the wrong number of bytes.
func errWrongHashLength(n int) error {
	return fmt.Errorf("tx: wrong hash length %d, expected %d", n, HashSize)
}
