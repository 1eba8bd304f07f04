package app

import (
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Deadolus/tschenggins-laempli/internal/config"
	"github.com/Deadolus/tschenggins-laempli/internal/station"
)

// clientID picks the identity the lamp announces to the backend: the
// configured value, the station MAC, or a random UUID that lives for this
// run only.
func clientID(cfg config.Config, st *station.NetStation) string {
	if cfg.ClientID != "" {
		return cfg.ClientID
	}
	if _, info := st.Status(); len(info.MAC) > 0 {
		return hex.EncodeToString(info.MAC)
	}
	id := uuid.NewString()
	slog.Warn("no MAC to derive a client ID from, using a random one", "client", id)
	return id
}
