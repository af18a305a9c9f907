package devicelink

import (
	"regexp"
	"strconv"
)

// handshakeLine is the exact marker the ESP32 firmware prints on connect.
const handshakeLine = "ESP32 has connected!"

// Line patterns for the firmware's report formats. The surrounding labels
// and spacing vary between firmware builds, so only the numbers and their
// unit or keyword markers are anchored.
var (
	// readingPattern matches a temperature/humidity report such as
	// "TEMP: 23.5 C, HUM: 60.0 %".
	readingPattern = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*C\s*,[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*%`)

	// seedLevelPattern matches a hopper fill report such as "SEED: 42.5 %".
	seedLevelPattern = regexp.MustCompile(`(?i)^SEED[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*%`)

	// alertPattern matches a firmware alert such as
	// "ALERT:LOW_SEED:Seed level below 10%".
	alertPattern = regexp.MustCompile(`(?i)^ALERT\s*:\s*([A-Za-z0-9_-]+)\s*:\s*(.+)$`)
)

// FrameKind identifies the semantic kind of a classified line.
type FrameKind int

const (
	// FrameUnrecognized is any line that matches no known report format.
	FrameUnrecognized FrameKind = iota

	// FrameHandshake is the device's connection confirmation marker.
	FrameHandshake

	// FrameReading is a parsed temperature/humidity sample.
	FrameReading

	// FrameSeedLevel is a parsed hopper fill percentage.
	FrameSeedLevel

	// FrameAlert is a firmware-raised alert with a type and message.
	FrameAlert
)

// String returns the frame kind as a human-readable string.
func (k FrameKind) String() string {
	switch k {
	case FrameHandshake:
		return "handshake"
	case FrameReading:
		return "reading"
	case FrameSeedLevel:
		return "seed_level"
	case FrameAlert:
		return "alert"
	default:
		return "unrecognized"
	}
}

// Frame is the immutable result of classifying one complete line.
//
// Temperature and Humidity are only meaningful for FrameReading, Level
// for FrameSeedLevel, AlertType and Message for FrameAlert.
type Frame struct {
	Kind        FrameKind
	Temperature float64
	Humidity    float64
	Level       float64
	AlertType   string
	Message     string
	Raw         string
}

// Classify determines the semantic kind of a single complete line.
//
// It is total: malformed input yields FrameUnrecognized, never an error.
// Each line produces exactly one frame.
func Classify(line string) Frame {
	if line == handshakeLine {
		return Frame{Kind: FrameHandshake, Raw: line}
	}

	if m := alertPattern.FindStringSubmatch(line); m != nil {
		return Frame{
			Kind:      FrameAlert,
			AlertType: m[1],
			Message:   m[2],
			Raw:       line,
		}
	}

	if m := readingPattern.FindStringSubmatch(line); m != nil {
		temperature, errT := strconv.ParseFloat(m[1], 64)
		humidity, errH := strconv.ParseFloat(m[2], 64)
		if errT != nil || errH != nil {
			return Frame{Kind: FrameUnrecognized, Raw: line}
		}
		return Frame{
			Kind:        FrameReading,
			Temperature: temperature,
			Humidity:    humidity,
			Raw:         line,
		}
	}

	if m := seedLevelPattern.FindStringSubmatch(line); m != nil {
		level, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Frame{Kind: FrameUnrecognized, Raw: line}
		}
		return Frame{Kind: FrameSeedLevel, Level: level, Raw: line}
	}

	return Frame{Kind: FrameUnrecognized, Raw: line}
}
