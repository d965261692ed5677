package session

import (
	"context"
	"regexp"
	"testing"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

var device = domain.DeviceInfo{
	UserAgent:    "Mozilla/5.0 (X11; Linux x86_64)",
	Platform:     "Linux x86_64",
	Language:     "en-GB",
	Timezone:     "Europe/London",
	ScreenWidth:  1920,
	ScreenHeight: 1080,
	DeviceType:   "desktop",
}

func TestFingerprint_StableAndShaped(t *testing.T) {
	fp := Fingerprint(device)
	if fp != Fingerprint(device) {
		t.Fatalf("fingerprint is not deterministic")
	}
	if !regexp.MustCompile(`^fp_[0-9a-f]{16}$`).MatchString(fp) {
		t.Fatalf("unexpected fingerprint shape %q", fp)
	}

	other := device
	other.ScreenWidth = 1280
	if Fingerprint(other) == fp {
		t.Fatalf("different signals should give a different fingerprint")
	}
}

func TestEnsureFingerprint_ReusesStoredValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fp, err := EnsureFingerprint(ctx, store, device)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if stored, _, _ := store.Get(ctx, FingerprintKey); stored != fp {
		t.Fatalf("fingerprint not stored")
	}

	_ = store.Set(ctx, FingerprintKey, "fp_legacy")
	again, err := EnsureFingerprint(ctx, store, device)
	if err != nil || again != "fp_legacy" {
		t.Fatalf("expected stored fingerprint, got %q %v", again, err)
	}
}
