package boltstore

import "encoding/binary"

// Bucket names.
var (
	bucketMeta       = []byte("meta")
	bucketRooms      = []byte("rooms")
	bucketThings     = []byte("things")
	bucketCharacters = []byte("characters")
	bucketNames      = []byte("names")
	// contents indexes room+object so occupancy is a prefix scan.
	bucketContents = []byte("contents")
)

var keyNextID = []byte("next_id")

const (
	contentThing byte = 't'
	contentActor byte = 'a'
)

// idKey converts a positive id to an 8-byte big-endian key so bucket order
// matches numeric order.
func idKey(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func keyID(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func contentKey(room, object int64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf, uint64(room))
	binary.BigEndian.PutUint64(buf[8:], uint64(object))
	return buf
}
