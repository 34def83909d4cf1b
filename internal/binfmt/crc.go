package binfmt

// CRC-16/CCITT with the parameters the engine uses to fingerprint pack
// directories: polynomial 0x1021, initial value 0xffff, no reflection, no
// final xor.
const (
	crcPoly = 0x1021
	crcInit = 0xffff
)

var crcTable = makeCRCTable()

func makeCRCTable() [256]uint16 {
	var t [256]uint16
	for i := range t {
		c := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if c&0x8000 != 0 {
				c = c<<1 ^ crcPoly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}

// CRC16 returns the checksum of data.
func CRC16(data []byte) uint16 {
	crc := uint16(crcInit)
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
