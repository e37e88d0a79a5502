package ledger

import "time"

// GenesisPreviousHash is the previous hash of the genesis block.
const GenesisPreviousHash = "0"

// GenesisText is the fixed payload of the genesis block.
const GenesisText Text = `
Happy Birthday Brit!

Aineko (mimicing Brit):
Or do we go to The Mercury and get
decent. But at a certain point you need tech skill
training on CRTs.

Helga constructed a haiku about Brit:
britt butler, booze-strong!
Brit needs poll enhancement help
i'm cuter than brit
`

// NewGenesisBlock builds the first block of a fresh ledger.
func NewGenesisBlock(timestamp time.Time) *Block {
	return NewBlock(0, timestamp, GenesisText, GenesisPreviousHash)
}
