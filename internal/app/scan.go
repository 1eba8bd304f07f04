package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/Deadolus/tschenggins-laempli/internal/station"
)

// runScanOnly is the degraded mode of an unconfigured lamp: survey the air
// at a fixed cadence and log what is visible, nothing else. Hosts without
// a wireless interface or iw(8) log the failure each round and keep going.
func runScanOnly(ctx context.Context, st *station.NetStation, every time.Duration) error {
	iface, err := st.InterfaceName()
	if err != nil {
		slog.Warn("no usable interface for scanning", "error", err)
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		scanOnce(ctx, iface)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func scanOnce(ctx context.Context, iface string) {
	aps, err := station.Scan(ctx, iface)
	if err != nil {
		slog.Warn("scan failed", "interface", iface, "error", err)
		return
	}
	slog.Info("scan done", "interface", iface, "found", len(aps))
	for _, ap := range aps {
		slog.Info("scan result",
			"ssid", apLabel(ap),
			"bssid", ap.BSSID,
			"channel", ap.Channel,
			"rssi", ap.RSSI,
			"auth", ap.Auth,
			"hidden", ap.Hidden)
	}
}

// apLabel marks hidden networks with a trailing asterisk, the way the
// device prints them.
func apLabel(ap station.AccessPoint) string {
	if ap.Hidden {
		return ap.SSID + "*"
	}
	return ap.SSID
}
