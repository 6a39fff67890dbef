// Package config is the process configuration store: a small
// key/value surface over Viper covering every key the core or its
// collaborators read, with environment-variable overrides, per
// spec §6 "Environment / configuration inputs consumed".
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Key identifies one configuration entry. The full ten-key set
// mirrors the original configuration surface; spec §6 calls out only
// token_ttl, policy_import, and the proxy_* trio by name, but every
// other key still has a home here since nothing in this core's scope
// excludes the rest of the ambient configuration surface.
type Key string

const (
	KeyProxyHost       Key = "proxy_host"       // Host name of the proxy server.
	KeyProxyUser       Key = "proxy_user"       // Proxy auth user name.
	KeyProxyPwd        Key = "proxy_pwd"        // Proxy auth password.
	KeyConnectFlag     Key = "connect_flag"     // Controls connection behavior.
	KeyTokenTTL        Key = "token_ttl"        // Default ttl for created tokens, in seconds.
	KeyPolicyImport    Key = "policy_import"    // Whether to persist policy keys on import.
	KeyLogTelemetry    Key = "log_telemetry"    // Whether to send logs to an event hub.
	KeyBrowseFS        Key = "browse_fs"        // Whether filesystem browsing is allowed.
	KeyRestrictedPorts Key = "restricted_ports" // Ports allowed to connect to.
	KeyBindDevice      Key = "bind_device"      // Device to bind outgoing sockets to.
)

// Config is a process-wide configuration store. The zero value is not
// usable; create one with New.
type Config struct {
	v *viper.Viper
}

// New creates a Config that also reads PRXCORE_-prefixed environment
// variables (e.g. PRXCORE_TOKEN_TTL overrides KeyTokenTTL).
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix("PRXCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Config{v: v}
}

func (c *Config) SetString(key Key, value string) { c.v.Set(string(key), value) }

func (c *Config) GetString(key Key, def string) string {
	if !c.v.IsSet(string(key)) {
		return def
	}
	return c.v.GetString(string(key))
}

func (c *Config) SetInt(key Key, value int) { c.v.Set(string(key), value) }

func (c *Config) GetInt(key Key, def int) int {
	if !c.v.IsSet(string(key)) {
		return def
	}
	return c.v.GetInt(string(key))
}

func (c *Config) SetBool(key Key, value bool) { c.v.Set(string(key), value) }

func (c *Config) GetBool(key Key, def bool) bool {
	if !c.v.IsSet(string(key)) {
		return def
	}
	return c.v.GetBool(string(key))
}
