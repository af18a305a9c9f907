package devicelink

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind FrameKind
		wantTemp float64
		wantHum  float64
	}{
		{
			name:     "handshake",
			line:     "ESP32 has connected!",
			wantKind: FrameHandshake,
		},
		{
			name:     "standard reading",
			line:     "TEMP: 23.5 C, HUM: 60.0 %",
			wantKind: FrameReading,
			wantTemp: 23.5,
			wantHum:  60.0,
		},
		{
			name:     "integer values",
			line:     "TEMP: 23 C, HUM: 60 %",
			wantKind: FrameReading,
			wantTemp: 23,
			wantHum:  60,
		},
		{
			name:     "lowercase units",
			line:     "temp: 21.2 c, hum: 48.9 %",
			wantKind: FrameReading,
			wantTemp: 21.2,
			wantHum:  48.9,
		},
		{
			name:     "tight spacing",
			line:     "18.1C,HUM:77%",
			wantKind: FrameReading,
			wantTemp: 18.1,
			wantHum:  77,
		},
		{
			name:     "garbage",
			line:     "garbage",
			wantKind: FrameUnrecognized,
		},
		{
			name:     "handshake with trailing text",
			line:     "ESP32 has connected! again",
			wantKind: FrameUnrecognized,
		},
		{
			name:     "temperature without humidity",
			line:     "TEMP: 23.5 C",
			wantKind: FrameUnrecognized,
		},
		{
			name:     "humidity without temperature",
			line:     "HUM: 60.0 %",
			wantKind: FrameUnrecognized,
		},
		{
			name:     "empty string",
			line:     "",
			wantKind: FrameUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Classify(tt.line)

			if frame.Kind != tt.wantKind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.line, frame.Kind, tt.wantKind)
			}
			if frame.Raw != tt.line {
				t.Errorf("Classify(%q).Raw = %q, want %q", tt.line, frame.Raw, tt.line)
			}
			if tt.wantKind != FrameReading {
				return
			}
			if frame.Temperature != tt.wantTemp {
				t.Errorf("Classify(%q).Temperature = %v, want %v", tt.line, frame.Temperature, tt.wantTemp)
			}
			if frame.Humidity != tt.wantHum {
				t.Errorf("Classify(%q).Humidity = %v, want %v", tt.line, frame.Humidity, tt.wantHum)
			}
		})
	}
}

func TestFrameKindString(t *testing.T) {
	tests := []struct {
		kind FrameKind
		want string
	}{
		{FrameHandshake, "handshake"},
		{FrameReading, "reading"},
		{FrameSeedLevel, "seed_level"},
		{FrameAlert, "alert"},
		{FrameUnrecognized, "unrecognized"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("FrameKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestClassifySeedLevel(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantKind  FrameKind
		wantLevel float64
	}{
		{
			name:      "standard seed report",
			line:      "SEED: 42.5 %",
			wantKind:  FrameSeedLevel,
			wantLevel: 42.5,
		},
		{
			name:      "integer level tight spacing",
			line:      "SEED:80%",
			wantKind:  FrameSeedLevel,
			wantLevel: 80,
		},
		{
			name:      "lowercase label",
			line:      "seed level: 12.0 %",
			wantKind:  FrameSeedLevel,
			wantLevel: 12.0,
		},
		{
			name:     "missing percent marker",
			line:     "SEED: 42.5",
			wantKind: FrameUnrecognized,
		},
		{
			name:     "seed label mid-line",
			line:     "status SEED: 42.5 %",
			wantKind: FrameUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Classify(tt.line)

			if frame.Kind != tt.wantKind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.line, frame.Kind, tt.wantKind)
			}
			if tt.wantKind == FrameSeedLevel && frame.Level != tt.wantLevel {
				t.Errorf("Classify(%q).Level = %v, want %v", tt.line, frame.Level, tt.wantLevel)
			}
		})
	}
}

func TestClassifyAlert(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind FrameKind
		wantType string
		wantMsg  string
	}{
		{
			name:     "low seed alert",
			line:     "ALERT:LOW_SEED:Seed level below 10%",
			wantKind: FrameAlert,
			wantType: "LOW_SEED",
			wantMsg:  "Seed level below 10%",
		},
		{
			name:     "spaced separators",
			line:     "ALERT : SENSOR_FAIL : DHT read timed out",
			wantKind: FrameAlert,
			wantType: "SENSOR_FAIL",
			wantMsg:  "DHT read timed out",
		},
		{
			// Alert messages may embed reading-like text; they must not
			// be misread as samples.
			name:     "message containing reading syntax",
			line:     "ALERT:OVERHEAT:Temp was 61.0 C, HUM: 10.0 %",
			wantKind: FrameAlert,
			wantType: "OVERHEAT",
			wantMsg:  "Temp was 61.0 C, HUM: 10.0 %",
		},
		{
			name:     "missing message",
			line:     "ALERT:LOW_SEED:",
			wantKind: FrameUnrecognized,
		},
		{
			name:     "missing type",
			line:     "ALERT::something broke",
			wantKind: FrameUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Classify(tt.line)

			if frame.Kind != tt.wantKind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.line, frame.Kind, tt.wantKind)
			}
			if tt.wantKind != FrameAlert {
				return
			}
			if frame.AlertType != tt.wantType {
				t.Errorf("Classify(%q).AlertType = %q, want %q", tt.line, frame.AlertType, tt.wantType)
			}
			if frame.Message != tt.wantMsg {
				t.Errorf("Classify(%q).Message = %q, want %q", tt.line, frame.Message, tt.wantMsg)
			}
		})
	}
}
