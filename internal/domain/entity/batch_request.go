package entity

// ContractCall is a single read-only eth_call in a batch.
type ContractCall struct {
	To   string
	Data []byte
}

// ContractCallResult is the outcome of one ContractCall. Either Data or Error is set.
type ContractCallResult struct {
	Data  []byte
	Error error
}
