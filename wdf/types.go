package wdf

import (
	"bytes"
	"fmt"
)

// Type is the kind of payload stored in an entry, as recognized from the
// payload's leading bytes.
type Type int

const (
	TypeUnknown Type = iota
	TypeSprite       // WAS sprite, "SP"
	TypePK           // "KP" container
	TypeMP3
	TypeWave // RIFF/WAVE
	TypeFSB4
	TypeJPEG
	TypeTGA
	TypePNG
	TypeRAR
)

var typeNames = map[Type]string{
	TypeUnknown: "unknown",
	TypeSprite:  "was",
	TypePK:      "pk",
	TypeMP3:     "mp3",
	TypeWave:    "wav",
	TypeFSB4:    "fsb4",
	TypeJPEG:    "jpeg",
	TypeTGA:     "tga",
	TypePNG:     "png",
	TypeRAR:     "rar",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// SignatureRule maps a byte prefix onto a type.
type SignatureRule struct {
	Prefix []byte
	Type   Type
}

// SignatureRules is evaluated top to bottom by Classify; the first rule whose
// prefix matches wins. Longer prefixes must precede shorter ones they overlap
// with.
//
// Only the first two bytes of each signature are compared; "RI" stands for
// "RIFF....WAVE", "FS" for "FSB4" and "Ra" for "Rar!".
var SignatureRules = []SignatureRule{
	{[]byte("SP"), TypeSprite},
	{[]byte("KP"), TypePK},
	{[]byte{0xFF, 0xF3}, TypeMP3},
	{[]byte("RI"), TypeWave},
	{[]byte("FS"), TypeFSB4},
	{[]byte{0xFF, 0xD8}, TypeJPEG},
	{[]byte{0x89, 0x50}, TypePNG},
	{[]byte("Ra"), TypeRAR},
	{[]byte{0x00, 0x00}, TypeTGA},
}

// ClassifyPrefixLen is how many leading bytes of a payload are read for
// classification.
const ClassifyPrefixLen = 4

// Classify returns the type of a payload starting with the passed bytes.
// Prefixes matching no rule, including ones too short to match any rule,
// are TypeUnknown.
func Classify(prefix []byte) Type {
	for _, rule := range SignatureRules {
		if bytes.HasPrefix(prefix, rule.Prefix) {
			return rule.Type
		}
	}
	return TypeUnknown
}
