package message

import "github.com/arya-analytics/ant/util/binary"

// NetworkKeySize is the size of an ANT network key.
const NetworkKeySize = 8

// resetPayloadSize is the number of padding bytes sent with a reset command.
const resetPayloadSize = 15

// Reset asks the dongle to perform a system reset. The dongle answers with a Startup
// message once it has rebooted.
func Reset() Message { return New(IDReset, make([]byte, resetPayloadSize)...) }

// SetNetworkKey configures the key used by the given network number.
func SetNetworkKey(network byte, key [NetworkKeySize]byte) Message {
	return New(IDNetworkKey, append([]byte{network}, key[:]...)...)
}

// RequestCapabilities asks the dongle to report a Capabilities message.
func RequestCapabilities() Message { return New(IDRequest, 0, byte(IDCapabilities)) }

// RequestChannelID asks the dongle to report the ChannelID of the given channel.
func RequestChannelID(channel byte) Message {
	return New(IDRequest, channel, byte(IDChannelID))
}

func AssignChannel(channel, channelType, network byte) Message {
	return New(IDAssignChannel, channel, channelType, network)
}

// SetChannelID binds a channel to a device. The device id is sent little endian.
func SetChannelID(channel byte, deviceID uint16, deviceType, transmissionType byte) Message {
	id := binary.PutUint16(deviceID)
	return New(IDChannelID, channel, id[0], id[1], deviceType, transmissionType)
}

func SetSearchTimeout(channel, timeout byte) Message {
	return New(IDSearchTimeout, channel, timeout)
}

// SetChannelPeriod sets the messaging period of a channel in units of 1/32768 s. The
// period is sent little endian.
func SetChannelPeriod(channel byte, period uint16) Message {
	p := binary.PutUint16(period)
	return New(IDChannelPeriod, channel, p[0], p[1])
}

// SetChannelFrequency sets the RF frequency of a channel as an offset in MHz from
// 2400 MHz.
func SetChannelFrequency(channel, frequency byte) Message {
	return New(IDChannelFrequency, channel, frequency)
}

func OpenChannel(channel byte) Message { return New(IDOpenChannel, channel) }

func CloseChannel(channel byte) Message { return New(IDCloseChannel, channel) }

func UnassignChannel(channel byte) Message { return New(IDUnassignChannel, channel) }

// AcknowledgeData sends an eight byte payload to the device paired with a channel and
// asks it to acknowledge receipt.
func AcknowledgeData(channel byte, data [8]byte) Message {
	return New(IDAcknowledgeData, append([]byte{channel}, data[:]...)...)
}
