package mem

import "github.com/arya-analytics/ant/message"

// DongleConfig configures the replies of Dongle.
type DongleConfig struct {
	// MaxChannels and MaxNetworks are reported in reply to a capabilities request.
	MaxChannels byte
	MaxNetworks byte
	// Devices maps a channel number to the device it reports in reply to a channel id
	// request.
	Devices map[byte]message.ChannelID
}

// Dongle returns a Responder that answers commands the way an ANT dongle does.
func Dongle(cfg DongleConfig) Responder {
	ack := func(ch byte, id message.ID) message.Message {
		return message.New(message.IDResponseEvent, ch, byte(id), byte(message.ResponseNoError))
	}
	return func(m message.Message) []message.Message {
		ch := byte(0)
		if len(m.Data) > 0 {
			ch = m.Data[0]
		}
		switch m.ID {
		case message.IDReset:
			return []message.Message{message.New(message.IDStartup, byte(message.StartupCommand))}
		case message.IDNetworkKey,
			message.IDAssignChannel,
			message.IDChannelID,
			message.IDSearchTimeout,
			message.IDChannelPeriod,
			message.IDChannelFrequency,
			message.IDOpenChannel,
			message.IDUnassignChannel:
			return []message.Message{ack(ch, m.ID)}
		case message.IDCloseChannel:
			return []message.Message{
				ack(ch, m.ID),
				message.New(message.IDResponseEvent, ch, byte(message.IDEvent), byte(message.EventChannelClosed)),
			}
		case message.IDRequest:
			if len(m.Data) < 2 {
				return nil
			}
			switch message.ID(m.Data[1]) {
			case message.IDCapabilities:
				return []message.Message{message.New(message.IDCapabilities, cfg.MaxChannels, cfg.MaxNetworks, 0, 0)}
			case message.IDChannelID:
				d := cfg.Devices[ch]
				id := d.DeviceID
				return []message.Message{message.New(
					message.IDChannelID, ch, byte(id), byte(id>>8), d.DeviceType, d.TransmissionType,
				)}
			}
		}
		return nil
	}
}
