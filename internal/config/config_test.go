package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name:    "uses defaults when nothing is set",
			envVars: map[string]string{},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 3000 &&
					c.Environment == "development" &&
					c.BlinkThreshold == 0.30 &&
					c.BlinkFrames == 2 &&
					c.VerifiedScore == 30 &&
					c.LandmarkProvider == "facemesh" &&
					c.FaceMeshURL == "http://localhost:5010" &&
					c.FaceMeshTimeout == 10*time.Second &&
					c.FaceMeshRetries == 2 &&
					c.AWSRegion == "us-east-1" &&
					c.MaxFrameBytes == 5*1024*1024 &&
					c.FrameMaxWidth == 640 &&
					c.RateLimitMax == 600 &&
					c.DatabaseURL == "" &&
					!c.EventLogEnabled() &&
					!c.WebhookEnabled() &&
					len(c.WebhookEvents) == 1 &&
					c.WebhookEvents[0] == "LIVENESS_VERIFIED" &&
					c.WebhookMaxAttempts == 5
			},
		},
		{
			name: "loads overrides",
			envVars: map[string]string{
				"PORT":              "8080",
				"ENV":               "production",
				"BLINK_THRESHOLD":   "0.25",
				"BLINK_FRAMES":      "3",
				"LANDMARK_PROVIDER": "mock",
				"MOCK_EAR_SCRIPT":   "0.35,0.2,0.2,0.35",
				"DATABASE_URL":      "postgres://localhost/test",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.BlinkThreshold == 0.25 &&
					c.BlinkFrames == 3 &&
					c.LandmarkProvider == "mock" &&
					len(c.MockEARScript) == 4 &&
					c.MockEARScript[1] == 0.2 &&
					c.EventLogEnabled()
			},
		},
		{
			name: "loads webhook settings",
			envVars: map[string]string{
				"WEBHOOK_URL":    "https://example.com/hooks/liveness",
				"WEBHOOK_SECRET": "s3cret",
				"WEBHOOK_EVENTS": "LIVENESS_VERIFIED,TRACKER_RESET",
			},
			check: func(c *Config) bool {
				return c.WebhookEnabled() &&
					c.WebhookSecret == "s3cret" &&
					len(c.WebhookEvents) == 2 &&
					c.WebhookEvents[1] == "TRACKER_RESET"
			},
		},
		{
			name:    "fails when threshold is zero",
			envVars: map[string]string{"BLINK_THRESHOLD": "0"},
			wantErr: true,
		},
		{
			name:    "fails when threshold is one",
			envVars: map[string]string{"BLINK_THRESHOLD": "1"},
			wantErr: true,
		},
		{
			name:    "fails when blink frames is zero",
			envVars: map[string]string{"BLINK_FRAMES": "0"},
			wantErr: true,
		},
		{
			name:    "fails on malformed number",
			envVars: map[string]string{"BLINK_FRAMES": "two"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{BlinkThreshold: 0.3, BlinkFrames: 2, MaxFrameBytes: 1024, FrameMaxWidth: 640}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	tooSmall := valid
	tooSmall.MaxFrameBytes = 0
	if err := tooSmall.Validate(); err == nil {
		t.Error("Validate() expected error for MAX_FRAME_BYTES=0")
	}

	negativeWidth := valid
	negativeWidth.FrameMaxWidth = -1
	if err := negativeWidth.Validate(); err == nil {
		t.Error("Validate() expected error for negative FRAME_MAX_WIDTH")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}
