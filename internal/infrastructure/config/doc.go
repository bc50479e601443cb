// Package config provides configuration loading for the robovac bridge.
//
// Configuration is loaded from a YAML file with environment variable
// overrides (ROBOVAC_* prefix) and validated before use. Secrets such as
// the cloud account password and the telemetry token should always come
// from the environment in production deployments.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
