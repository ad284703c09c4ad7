package plist17

// bplist17 streams start with a fixed 8 byte header. Every object after it is
// addressed by its absolute offset from the first header byte.
const (
	bpMagic      = "bplist"
	bpVersion17  = "17"
	bpVersion00  = "00"
	bpHeader     = bpMagic + bpVersion17
	bpHeaderSize = len(bpHeader)

	// containers store the address of their last content byte in a fixed
	// little-endian field right after the tag.
	bpEndAddressSize = 8
	bpContainerHead  = 1 + bpEndAddressSize
)

// Tag selectors live in the high nibble of the first byte of every object.
const (
	bpTagInteger     uint8 = 0x10
	bpTagReal        uint8 = 0x20
	bpTagData        uint8 = 0x40
	bpTagUTF16String uint8 = 0x60
	bpTagASCIIString uint8 = 0x70
	bpTagReference   uint8 = 0x80
	bpTagArray       uint8 = 0xA0
	bpTagBoolTrue    uint8 = 0xB0
	bpTagBoolFalse   uint8 = 0xC0
	bpTagDictionary  uint8 = 0xD0
	bpTagNull        uint8 = 0xE0
	bpTagUnsigned    uint8 = 0xF0

	bpTagReal32 = bpTagReal | 0x2
	bpTagReal64 = bpTagReal | 0x3

	// an inline field of 0xF means the size spills into a following integer token.
	bpSizeSpill uint8 = 0x0F
)
