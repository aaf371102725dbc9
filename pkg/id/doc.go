// Package id generates short, sortable identifiers used to tag HTTP requests
// and their log lines.
//
// An ID is 12 bytes: a 48-bit millisecond timestamp, a 16-bit random node tag
// chosen per Generator, and a 32-bit counter. Within one Generator IDs are
// strictly increasing even if the wall clock steps backwards.
//
//	g := id.NewGenerator()
//	rid := g.Next().String() // e.g. "06bk2p1g3e9s00000004"
package id
