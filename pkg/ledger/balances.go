package ledger

// Balances sums the transactions of every mined block into a per-account
// balance. The network issuer is never debited.
func Balances(blocks []*Block) map[string]int64 {
	balances := make(map[string]int64)
	for _, b := range blocks {
		data, ok := b.data.(MinedData)
		if !ok {
			continue
		}
		for _, tx := range data.Transactions {
			if tx.From != NetworkIssuer {
				balances[tx.From] -= tx.Amount
			}
			balances[tx.To] += tx.Amount
		}
	}
	return balances
}
