package enum

type SendsEmail string

const (
	SendsEmailTrue    SendsEmail = "true"
	SendsEmailFalse   SendsEmail = "false"
	SendsEmailUnknown SendsEmail = "unknown"
)

func (s SendsEmail) String() string {
	return string(s)
}

func (s SendsEmail) IsValid() bool {
	switch s {
	case SendsEmailTrue, SendsEmailFalse, SendsEmailUnknown:
		return true
	}
	return false
}
