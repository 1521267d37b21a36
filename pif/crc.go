package pif

import "github.com/sigurn/crc8"

// joybusCRCParams matches the controller-pak CRC exactly: polynomial 0x85,
// no input/output reflection, no final XOR. Ported from the parameters
// clktmr-n64's rcp/serial/joybus package passes to crc8.MakeTable, which
// in turn reproduces hw/pif/joybus.cpp's bit-serial calculateCRC.
var joybusCRCParams = crc8.Params{
	Poly: 0x85, Init: 0x00, RefIn: false, RefOut: false, XorOut: 0x00, Check: 0xF4,
	Name: "CRC-8 N64 Pak",
}

var joybusCRCTable = crc8.MakeTable(joybusCRCParams)

// joybusCRC computes the controller-pak accessory-write checksum over a
// 32-byte data block.
func joybusCRC(data []byte) uint8 {
	c := crc8.Init(joybusCRCTable)
	c = crc8.Update(c, data, joybusCRCTable)
	return crc8.Complete(c, joybusCRCTable)
}
