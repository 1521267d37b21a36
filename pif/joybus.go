package pif

// joybusTXBufferSize is the transmit/receive scratch buffer the channel
// command protocol uses (an implementation choice in hw/pif/joybus.cpp,
// sized generously above any real command/response pair).
const joybusTXBufferSize = 64

const joybusNumChannels = 5

// joybusChannelDeviceKind enumerates what, if anything, is plugged into a
// joybus channel. Only a standard controller is modeled; pak/EEPROM/RTC
// accessories remain an explicit Non-goal.
type joybusChannelDeviceKind int

const (
	joybusDeviceNone joybusChannelDeviceKind = iota
	joybusDeviceController
)

const (
	joybusStatusDevicePresent = 1 << 2
	joybusStatusClock         = 1 << 3

	joybusErrorFlag = 1 << 3
)

const (
	joybusCmdInfo                     = 0x00
	joybusCmdControllerState          = 0x01
	joybusCmdWriteControllerAccessory = 0x03
)

const (
	joybusControllerID     = 0x0500
	joybusStatusNoAccessory = 1 << 1
)

type joybusReceiveState int

const (
	joybusReceiveCommand joybusReceiveState = iota
	joybusReceiveData
)

// joybusChannel is a single addressable joybus channel's attached device.
type joybusChannel struct {
	device joybusChannelDeviceKind
}

// joybusDevice is the joybus channel state machine: up to 5 channels,
// each with an attached device kind, a shared transmit/receive buffer,
// and the command dispatch that serves §4.8's joybus ports. Ported from
// hw/pif/joybus.cpp.
type joybusDevice struct {
	channels      [joybusNumChannels]joybusChannel
	activeChannel int // -1 when none selected
	current       int

	txPointer, dataSize uint8
	tx                   [joybusTXBufferSize]uint8
	firstAccess          bool

	state joybusReceiveState

	inputs Inputs
}

func (d *joybusDevice) reset(inputs Inputs) {
	*d = joybusDevice{activeChannel: -1, inputs: inputs}
	d.channels[0].device = joybusDeviceController
	d.firstAccess = true
	d.resetTX()
	d.state = joybusReceiveCommand
}

func (d *joybusDevice) resetTX() {
	d.txPointer, d.dataSize = 0, 0
	for i := range d.tx {
		d.tx[i] = 0
	}
}

func (d *joybusDevice) prepareReceiveData(length uint8) {
	d.dataSize = d.txPointer + length
	d.state = joybusReceiveData
}

func (d *joybusDevice) setActiveChannel(channel uint8) error {
	if int(channel) >= joybusNumChannels {
		return &FatalError{Message: "invalid joybus channel selected"}
	}
	d.activeChannel = int(channel)
	d.current = int(channel)
	d.resetTX()
	d.state = joybusReceiveCommand
	return nil
}

func (d *joybusDevice) activeDevice() joybusChannelDeviceKind {
	if d.activeChannel < 0 {
		return joybusDeviceNone
	}
	return d.channels[d.activeChannel].device
}

// doCommand dispatches the command byte in tx[0]. Info and ControllerState
// answer at once; WriteControllerAccessory first collects its address and
// 32-byte data block, then answers with joybusCRC (crc.go) over that block.
func (d *joybusDevice) doCommand() error {
	command := d.tx[0]
	switch command {
	case joybusCmdInfo:
		return d.cmdInfo()
	case joybusCmdControllerState:
		return d.cmdControllerState()
	case joybusCmdWriteControllerAccessory:
		d.prepareReceiveData(34) // two address bytes, 32 data bytes
		return nil
	default:
		return &FatalError{Message: "unrecognized joybus command"}
	}
}

func (d *joybusDevice) cmdControllerState() error {
	d.resetTX()
	switch d.activeDevice() {
	case joybusDeviceController:
		var state ControllerState
		if d.inputs != nil {
			state = d.inputs.PollInputs()
		}
		d.tx[0] = byte(state.Buttons >> 8)
		d.tx[1] = byte(state.Buttons)
		d.tx[2] = byte(state.StickX)
		d.tx[3] = byte(state.StickY)
		return nil
	default:
		return &FatalError{Message: "joybus controller-state on unpopulated channel"}
	}
}

func (d *joybusDevice) cmdInfo() error {
	d.resetTX()
	switch d.activeDevice() {
	case joybusDeviceController:
		d.tx[0] = byte(joybusControllerID >> 8)
		d.tx[1] = byte(joybusControllerID & 0xFF)
		d.tx[2] = joybusStatusNoAccessory
		return nil
	default:
		return &FatalError{Message: "joybus info on unpopulated channel"}
	}
}

func (d *joybusDevice) cmdWriteControllerAccessory() error {
	crc := joybusCRC(d.tx[3:35])
	d.resetTX()
	switch d.activeDevice() {
	case joybusDeviceController:
		// No controller pak modeled; accepted and acknowledged with the
		// expected CRC so software doesn't treat the write as failed.
	default:
		return &FatalError{Message: "joybus accessory write on unpopulated channel"}
	}
	d.tx[0] = crc
	return nil
}

func (d *joybusDevice) readChannel() uint8 { return uint8(d.current) }

func (d *joybusDevice) readError() uint8 { return 0 }

func (d *joybusDevice) readReceive() uint8 {
	var data uint8
	if d.firstAccess {
		data = d.tx[d.txPointer] >> 4
	} else {
		data = d.tx[d.txPointer] & 0xF
		d.txPointer++
	}
	d.firstAccess = !d.firstAccess
	return data
}

func (d *joybusDevice) readStatus() uint8 {
	status := uint8(joybusStatusClock)
	if d.activeDevice() != joybusDeviceNone {
		status |= joybusStatusDevicePresent
	}
	return status
}

func (d *joybusDevice) writeChannel(data uint8) error { return d.setActiveChannel(data) }

func (d *joybusDevice) writeControl(data uint8) {}

func (d *joybusDevice) writeError(data uint8) {}

func (d *joybusDevice) writeTransmit(data uint8) error {
	if d.txPointer >= joybusTXBufferSize {
		return &FatalError{Message: "joybus transmit buffer overrun"}
	}

	if d.firstAccess {
		d.tx[d.txPointer] = data << 4
	} else {
		d.tx[d.txPointer] |= data
		d.txPointer++
	}

	var err error
	switch d.state {
	case joybusReceiveCommand:
		err = d.doCommand()
	case joybusReceiveData:
		if d.txPointer == d.dataSize {
			switch d.tx[0] {
			case joybusCmdWriteControllerAccessory:
				err = d.cmdWriteControllerAccessory()
			default:
				err = &FatalError{Message: "unrecognized joybus command completing data phase"}
			}
		}
	}

	d.firstAccess = !d.firstAccess
	return err
}
