package velocypack

import "fmt"

// Type represents the logical type of a value.
type Type uint8

// List of supported types.
const (
	// TypeNone denotes the absence of a value
	TypeNone Type = iota
	TypeNull
	TypeBool
	TypeDouble
	TypeArray
	TypeObject
	TypeExternal
	TypeID
	TypeArangoDBID
	TypeString
	TypeUTCDate
	TypeInt
	TypeUInt
	TypeSmallInt
	TypeBinary
	TypeBCD
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeDouble:
		return "double"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	case TypeExternal:
		return "external"
	case TypeID:
		return "id"
	case TypeArangoDBID:
		return "arangodb-id"
	case TypeString:
		return "string"
	case TypeUTCDate:
		return "utc-date"
	case TypeInt:
		return "int"
	case TypeUInt:
		return "uint"
	case TypeSmallInt:
		return "smallint"
	case TypeBinary:
		return "binary"
	case TypeBCD:
		return "bcd"
	}

	panic(fmt.Sprintf("unsupported type %#v", t))
}

// One-byte tags of the wire format. All multi-byte payloads are
// little-endian.
const (
	tagNone  byte = 0x00
	tagNull  byte = 0x01
	tagFalse byte = 0x02
	tagTrue  byte = 0x03

	// IEEE-754 binary64, 8 bytes
	tagDouble byte = 0x04

	// Containers. The low bit encodes the index-table format:
	// odd means 2-byte offsets and a 1-byte count, even means
	// 8-byte offsets and an 8-byte count.
	tagArraySmall  byte = 0x05
	tagArrayLarge  byte = 0x06
	tagObjectSmall byte = 0x07
	tagObjectLarge byte = 0x08

	// In-process raw address, not portable across processes
	tagExternal byte = 0x09

	// UInt length followed by a String
	tagID byte = 0x0a

	// ArangoDB sentinel id
	tagArangoDBID byte = 0x0b

	// 8-byte length followed by UTF-8 bytes
	tagStringLong byte = 0x0c

	// millisecond timestamp, 8 bytes, complement+1 encoded
	tagUTCDate byte = 0x0d

	// 0x0e is unused, 0x0f is a reserved alternative unsigned path

	// Integer bases. The payload width 1..8 is added to the base,
	// so positive ints use 0x18..0x1f, negative ints (magnitude
	// stored) 0x20..0x27 and unsigned ints 0x28..0x2f.
	tagIntPosBase byte = 0x17
	tagIntNegBase byte = 0x1f
	tagUIntBase   byte = 0x27

	// Single-byte integers: 0x30..0x37 encode 0..7,
	// 0x38..0x3f encode -8..-1.
	tagSmallIntBase byte = 0x30

	// Short strings store their length in the tag: 0x40 is the
	// empty string, 0xbf a 127-byte string.
	tagStringShortBase byte = 0x40

	// Binary blobs: the length width 1..8 is added to the base,
	// then the length, then the bytes.
	tagBinaryBase byte = 0xbf
)

// typeOfTag maps a wire tag to its logical type.
func typeOfTag(tag byte) Type {
	switch {
	case tag == tagNull:
		return TypeNull
	case tag == tagFalse || tag == tagTrue:
		return TypeBool
	case tag == tagDouble:
		return TypeDouble
	case tag == tagArraySmall || tag == tagArrayLarge:
		return TypeArray
	case tag == tagObjectSmall || tag == tagObjectLarge:
		return TypeObject
	case tag == tagExternal:
		return TypeExternal
	case tag == tagID:
		return TypeID
	case tag == tagArangoDBID:
		return TypeArangoDBID
	case tag == tagStringLong:
		return TypeString
	case tag == tagUTCDate:
		return TypeUTCDate
	case tag > tagIntPosBase && tag <= tagIntPosBase+8:
		return TypeInt
	case tag > tagIntNegBase && tag <= tagIntNegBase+8:
		return TypeInt
	case tag > tagUIntBase && tag <= tagUIntBase+8:
		return TypeUInt
	case tag >= tagSmallIntBase && tag <= tagSmallIntBase+0x0f:
		return TypeSmallInt
	case tag >= tagStringShortBase && tag <= tagStringShortBase+127:
		return TypeString
	case tag > tagBinaryBase && tag <= tagBinaryBase+8:
		return TypeBinary
	}

	return TypeNone
}
