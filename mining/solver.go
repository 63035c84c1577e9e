package mining

import (
	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/util"
	"github.com/quasarnet/quasard/wire"
)

// SolveBlock grinds the nonce of a template block until its hash satisfies
// the target encoded in its difficulty bits. It is used by the simnet
// harness and by tests; production miners solve templates out of process.
func SolveBlock(block *wire.MsgBlock, maxAttempts uint64) error {
	target := util.CompactToBig(block.Bits)
	for attempt := uint64(0); attempt < maxAttempts; attempt++ {
		block.Nonce = attempt
		if util.HashToBig(block.BlockHash()).Cmp(target) <= 0 {
			return nil
		}
	}
	return errors.Errorf("no solution for block at height %d within %d attempts",
		block.Height, maxAttempts)
}
