package mdbxkv

// View runs fn in a read transaction. The transaction is aborted when fn
// returns, whatever the outcome; values read must be copied to escape fn.
func (e *Env) View(fn func(txn *ReadTxn) error) error {
	txn, err := e.BeginRead()
	if err != nil {
		return err
	}
	defer txn.Abort()
	return fn(txn)
}

// Update runs fn in a write transaction.
// The transaction is committed when fn returns nil, or aborted when fn
// returns an error or panics.
func (e *Env) Update(fn func(txn *WriteTxn) error) error {
	txn, err := e.BeginWrite()
	if err != nil {
		return err
	}
	return runWrite(txn, fn)
}

// Sub runs fn in a nested transaction of txn.
// The child is committed into txn when fn returns nil, or aborted when fn
// returns an error or panics; txn stays usable either way.
func (txn *WriteTxn) Sub(fn func(txn *WriteTxn) error) error {
	child, err := txn.BeginNested()
	if err != nil {
		return err
	}
	return runWrite(child, fn)
}

func runWrite(txn *WriteTxn, fn func(txn *WriteTxn) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			txn.Abort()
			panic(r)
		}
	}()
	if err = fn(txn); err != nil {
		txn.Abort()
		return err
	}
	return txn.Commit()
}
