package replies

import (
	"strings"
	"testing"
)

func TestGet_FallsBackToEnglish(t *testing.T) {
	tests := []struct {
		name     string
		language string
		key      Key
		wantEn   bool
	}{
		{name: "english", language: "en", key: KeyWelcome, wantEn: true},
		{name: "hindi has own text", language: "hi", key: KeyWelcome, wantEn: false},
		{name: "spanish has own text", language: "es", key: KeyDailyLimit, wantEn: false},
		{name: "unknown language falls back", language: "fr", key: KeyWelcome, wantEn: true},
		{name: "tamil falls back", language: "ta", key: KeyResponseLimit, wantEn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Get(tt.language, tt.key)
			if got == "" {
				t.Fatal("Get returned empty text")
			}
			if (got == english[tt.key]) != tt.wantEn {
				t.Errorf("Get(%s, %s) english fallback = %v, want %v",
					tt.language, tt.key, got == english[tt.key], tt.wantEn)
			}
		})
	}
}

func TestGet_AllKeysHaveEnglishText(t *testing.T) {
	keys := []Key{
		KeyWelcome, KeyNoSymptoms, KeyMoreSymptoms, KeySymptomsNoted,
		KeyDiagnosis, KeyAdvice, KeyDailyLimit, KeyResponseLimit,
		KeyUnavailable, KeyBadLanguage,
	}

	for _, key := range keys {
		if strings.TrimSpace(english[key]) == "" {
			t.Errorf("no English text for key %s", key)
		}
	}
}
