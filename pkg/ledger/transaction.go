package ledger

// Transaction is an opaque payload record carried inside a block. Balances,
// signatures and double-spend checks are not modelled.
type Transaction struct {
	Sender   string `msgpack:"s" json:"sender"`
	Receiver string `msgpack:"r" json:"receiver"`
	Amount   uint64 `msgpack:"a" json:"amount"`
}
