package config

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	EnvPrefix = "HEALTHMARKET"
)
