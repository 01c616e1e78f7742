// Package config loads streambuf configuration.
//
// Loader starts from Default, decodes each file layer onto it in order,
// applies STREAMBUF_* environment overrides and validates the result:
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/base.yaml")
//	loader.AddLayer("configs/ci.yaml") // overrides base
//
//	cfg, err := loader.Load()
//	if err != nil {
//	    return err
//	}
//
// A layer only overrides the keys it sets. Layers may be YAML or JSON; both
// are decoded with gopkg.in/yaml.v3, so durations are written as Go duration
// strings ("250ms", "5s").
//
// # Sections
//
//	log:      level (debug|info|warn|error), format (text|json)
//	metrics:  enabled, port, path
//	pipeline: name, store (ring|bounded|overwriting|heap), capacity,
//	          ascending, decorator (none|blocking|bounded|timeout),
//	          max_size, timeout
//	load:     producers, consumers, items, rate, burst, duration, retry
//	health:   degraded/unhealthy utilization and overflow thresholds
//
// # Environment
//
// Overrides use the section and key in upper case, for example
// STREAMBUF_LOG_LEVEL, STREAMBUF_PIPELINE_STORE, STREAMBUF_PIPELINE_TIMEOUT
// or STREAMBUF_LOAD_RATE. Values that fail to parse are reported together
// as one invalid-class error.
//
// # Validation
//
// Validate reports every problem at once. The error matches
// errors.ErrInvalidConfig and is classified invalid.
//
// Config files are read through a guarded path: the extension must be
// .yaml, .yml or .json, relative paths may not leave the working directory
// and files over 1MB are refused.
package config
