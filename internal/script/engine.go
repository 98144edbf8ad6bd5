// Package script fixes the contract a script interpreter must satisfy
// for transaction legality checks (C6) without implementing one: real
// Bitcoin script execution is out of scope for this node.
package script

// Engine executes a signature script followed by a public-key script and
// reports whether the result leaves a truthy value on top of the stack.
type Engine interface {
	Execute(sigScript, pkScript, sigHash []byte) (bool, error)
}

// NullEngine always succeeds. It lets transaction-legality code run (and
// be tested) end to end without owning a script virtual machine.
type NullEngine struct{}

func (NullEngine) Execute(sigScript, pkScript, sigHash []byte) (bool, error) {
	return true, nil
}
