package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantKind   ActionKind
		wantAction string
		wantOK     bool
	}{
		{
			name:       "pointer move",
			content:    "simulate_input:pointer:100,100",
			wantKind:   ActionPointer,
			wantAction: "100,100",
			wantOK:     true,
		},
		{
			name:       "key press",
			content:    "simulate_input:key:65",
			wantKind:   ActionKey,
			wantAction: "65",
			wantOK:     true,
		},
		{
			name:       "legacy mouse alias",
			content:    "simulate_input:mouse:10,20",
			wantKind:   ActionPointer,
			wantAction: "10,20",
			wantOK:     true,
		},
		{
			name:       "legacy keyboard alias",
			content:    "simulate_input:keyboard:13",
			wantKind:   ActionKey,
			wantAction: "13",
			wantOK:     true,
		},
		{
			name:       "embedded mid-sentence",
			content:    "please simulate_input:pointer:5,5 and report back",
			wantKind:   ActionPointer,
			wantAction: "5,5",
			wantOK:     true,
		},
		{
			name:    "no directive",
			content: "just a chat message",
		},
		{
			name:    "unknown kind",
			content: "simulate_input:gamepad:up",
		},
		{
			name:    "missing action",
			content: "simulate_input:pointer:",
		},
		{
			name:    "bare prefix",
			content: "simulate_input:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, action, ok := parseDirective(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKind, kind)
				assert.Equal(t, tt.wantAction, action)
			}
		})
	}
}
