package ldbtest_test

import (
	"fmt"
	"log"

	"github.com/diamondburned/ldb/ldbtest"
)

func ExampleFixture() {
	for _, b := range ldbtest.Backends() {
		f, err := ldbtest.NewWithBackend(b, "apitest.ldb")
		if err != nil {
			log.Fatalln("failed to create fixture:", err)
		}

		fmt.Println(f.Backend(), f.URL(), f.Flags())
	}

	// Output:
	// TDB tdb://apitest.ldb 0
	// MDB mdb://apitest.ldb 2
}

func ExampleNew() {
	f, err := ldbtest.New("apitest.ldb")
	if err != nil {
		log.Fatalln("failed to create fixture:", err)
	}

	fmt.Println(f.Configured(), f.URL(), f.LockFile())

	// Output:
	// false tdb://apitest.ldb apitest.ldb-lock
}

func ExampleMDBIndexObj() {
	msg := ldbtest.MDBIndexObj()

	fmt.Println(msg.DN)
	for _, el := range msg.Elements {
		fmt.Printf("%s: %s\n", el.Name, el.Values[0])
	}

	// Output:
	// @INDEXLIST
	// @IDXONE: 1
	// @IDXGUID: objectUUID
	// @IDX_DN_GUID: GUID
}
