package ai

// Part is one ordered element of a completion prompt: either TextPart or BinaryPart.
type Part interface {
	isPart()
}

type TextPart struct {
	Text string
}

// BinaryPart carries inline attachment bytes tagged with their MIME type.
type BinaryPart struct {
	MIMEType string
	Data     []byte
}

func (TextPart) isPart()   {}
func (BinaryPart) isPart() {}
