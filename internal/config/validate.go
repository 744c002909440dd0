package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims DSNs, fills pool defaults and reports
// anything that would make the storage layer misbehave. A missing
// primary DSN is an error: the caller is expected to treat it as fatal.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Database.Primary = strings.TrimSpace(out.Database.Primary)
	out.Database.ReplicaNorth = strings.TrimSpace(out.Database.ReplicaNorth)
	out.Database.ReplicaSouth = strings.TrimSpace(out.Database.ReplicaSouth)

	if out.Database.Primary == "" {
		res.addErr("database.primary is required")
	}
	if out.Database.ReplicaNorth == "" {
		res.addWarn("database.replica_north is not configured; north reads will hit the primary")
	}
	if out.Database.ReplicaSouth == "" {
		res.addWarn("database.replica_south is not configured; south reads will hit the primary")
	}
	if out.Database.ReplicaNorth != "" && out.Database.ReplicaNorth == out.Database.Primary {
		res.addWarn("database.replica_north equals the primary DSN; region routing is a no-op")
	}
	if out.Database.ReplicaSouth != "" && out.Database.ReplicaSouth == out.Database.Primary {
		res.addWarn("database.replica_south equals the primary DSN; region routing is a no-op")
	}

	if out.Database.MaxOpenConns <= 0 {
		out.Database.MaxOpenConns = 8
	}
	if out.Database.MaxIdleConns <= 0 {
		out.Database.MaxIdleConns = 4
	}
	if out.Database.MaxIdleConns > out.Database.MaxOpenConns {
		res.addWarn("database.max_idle_conns (%d) exceeds max_open_conns (%d)",
			out.Database.MaxIdleConns, out.Database.MaxOpenConns)
		out.Database.MaxIdleConns = out.Database.MaxOpenConns
	}
	if out.Database.QueryTimeoutMillis < 0 {
		res.addErr("database.query_timeout_ms must be >= 0")
	}

	if out.App.Port <= 0 {
		out.App.Port = 38472
	}
	if out.Health.ProbeSeconds <= 0 {
		out.Health.ProbeSeconds = 30
	} else if out.Health.ProbeSeconds < 5 {
		res.addWarn("health.probe_seconds is very low (%d); probes may dominate replica traffic", out.Health.ProbeSeconds)
	}

	return out, res
}
