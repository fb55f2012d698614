package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tradeconsole/internal/flagx"
	"github.com/dmitrijs2005/tradeconsole/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" apart from a zero value.
type JsonConfig struct {
	BackendURL     *string         `json:"backend_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	DatabasePath   *string         `json:"database_path"`
	HTTPAddr       *string         `json:"http_addr"`
	StoreKey       *string         `json:"store_key"`
	AdminOnlyLogin *bool           `json:"admin_only_login"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays cfg with the fields present in the file named by -c or
// -config. Without either flag it does nothing. Panics on read or unmarshal
// errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.BackendURL, jc.BackendURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.StoreKey, jc.StoreKey)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.AdminOnlyLogin != nil {
		cfg.AdminOnlyLogin = *jc.AdminOnlyLogin
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
