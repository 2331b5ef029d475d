package kv

import (
	"fmt"
	"os"
	"path/filepath"
)

func ExampleDB_Begin() {
	dir, err := os.MkdirTemp(os.TempDir(), "example")
	if err != nil {
		panic("failed to create folder: " + err.Error())
	}

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "example.db"))
	if err != nil {
		panic("failed to open db: " + err.Error())
	}

	defer db.Close()

	txn, err := db.Begin()
	if err != nil {
		panic("failed to begin: " + err.Error())
	}

	txn.OnCommit(func() {
		fmt.Println("block committed")
	})

	balances, err := txn.GetBucketOrCreate([]byte("balances"))
	if err != nil {
		panic("failed to create bucket: " + err.Error())
	}

	err = balances.Set([]byte("alice"), []byte{0x10})
	if err != nil {
		panic("failed to write: " + err.Error())
	}

	// Writes are visible inside the transaction before the commit.
	fmt.Printf("%#x\n", balances.Get([]byte("alice")))

	err = txn.Commit()
	if err != nil {
		panic("failed to commit: " + err.Error())
	}

	err = db.View(func(tx ReadableTx) error {
		fmt.Printf("%#x\n", tx.GetBucket([]byte("balances")).Get([]byte("alice")))
		return nil
	})
	if err != nil {
		panic("database read failed: " + err.Error())
	}

	// Output: 0x10
	// block committed
	// 0x10
}
