package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// FingerprintKey is the storage key of the device fingerprint.
const FingerprintKey = "device_fingerprint"

// Fingerprint derives a stable, non-cryptographic label for a device. It
// only tags heartbeats and is not a security boundary.
func Fingerprint(info domain.DeviceInfo) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join([]string{
		info.UserAgent,
		info.Platform,
		info.Language,
		info.Timezone,
		strconv.Itoa(info.ScreenWidth) + "x" + strconv.Itoa(info.ScreenHeight),
		info.DeviceType,
	}, "|")))
	return fmt.Sprintf("fp_%016x", h.Sum64())
}

// EnsureFingerprint returns the stored fingerprint, deriving and storing one
// from info when none exists.
func EnsureFingerprint(ctx context.Context, store KVStore, info domain.DeviceInfo) (string, error) {
	if fp, ok, err := store.Get(ctx, FingerprintKey); err != nil {
		return "", fmt.Errorf("read fingerprint: %w", err)
	} else if ok && fp != "" {
		return fp, nil
	}

	fp := Fingerprint(info)
	if err := store.Set(ctx, FingerprintKey, fp); err != nil {
		return "", fmt.Errorf("store fingerprint: %w", err)
	}
	return fp, nil
}
