package ldbtest

import "github.com/diamondburned/ldb"

// mdbIndexObj is never handed out directly; see MDBIndexObj.
var mdbIndexObj = ldb.Message{
	DN: ldb.IndexListDN,
	Elements: []ldb.Element{
		{Name: ldb.IdxOne, Values: [][]byte{[]byte("1")}},
		{Name: ldb.IdxGUID, Values: [][]byte{[]byte("objectUUID")}},
		{Name: ldb.IdxDNGUID, Values: [][]byte{[]byte("GUID")}},
	},
}

// MDBIndexObj returns the @INDEXLIST record that turns on one-level indexing
// and GUID indexing keyed on objectUUID. Each call returns a fresh copy.
func MDBIndexObj() *ldb.Message {
	return mdbIndexObj.Copy()
}

// ProvisionIndexes adds the MDBIndexObj record to the database.
func ProvisionIndexes(db *ldb.Database) error {
	return db.Add(MDBIndexObj())
}
