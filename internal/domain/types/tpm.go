package types

import "fmt"

// TPMConfig sizes the tree parity machines the relay synchronizes: K hidden
// neurons, N inputs per neuron, weights in [-L, L].
type TPMConfig struct {
	K int `json:"K"`
	N int `json:"N"`
	L int `json:"L"`
}

// DefaultTPMConfig is the configuration the relay uses when none is given.
func DefaultTPMConfig() TPMConfig { return TPMConfig{K: 3, N: 4, L: 3} }

// Validate checks the bounds the relay enforces.
func (c TPMConfig) Validate() error {
	switch {
	case c.K < 1 || c.K > 32:
		return fmt.Errorf("tpm K must be in [1,32], got %d", c.K)
	case c.N < 1 || c.N > 64:
		return fmt.Errorf("tpm N must be in [1,64], got %d", c.N)
	case c.L < 1 || c.L > 10:
		return fmt.Errorf("tpm L must be in [1,10], got %d", c.L)
	}
	return nil
}

// IsZero reports whether no field is set.
func (c TPMConfig) IsZero() bool { return c == TPMConfig{} }
