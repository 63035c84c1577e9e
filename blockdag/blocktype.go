package blockdag

// BlockType classifies a block relative to the current linear order of the
// DAG. The classification is derived on demand and changes as the DAG grows.
type BlockType int

const (
	// BlockTypeNormal is an ordered block that is too recent to be
	// classified as anything more specific.
	BlockTypeNormal BlockType = iota

	// BlockTypeSync is a block on the selected chain that is buried below
	// the stable depth, so its position can no longer change.
	BlockTypeSync

	// BlockTypeSide is a recent ordered block that lies off the selected
	// chain.
	BlockTypeSide

	// BlockTypeOrphaned is a block outside the past cone of the selected
	// tip. It holds no position in the linear order and contributed
	// nothing to the ledger state.
	BlockTypeOrphaned
)

var blockTypeStrings = map[BlockType]string{
	BlockTypeNormal:   "Normal",
	BlockTypeSync:     "Sync",
	BlockTypeSide:     "Side",
	BlockTypeOrphaned: "Orphaned",
}

func (bt BlockType) String() string {
	if s, ok := blockTypeStrings[bt]; ok {
		return s
	}
	return "Unknown"
}
