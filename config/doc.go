// Package config exposes the tunable defaults of the operator runtime:
// buffer capacities, flat-map concurrency, and the emit-on hand-off queue
// size. Settings load from an optional YAML file and STREAMKIT_* environment
// variables (a .env file is honored when present) and are validated before
// use. Operators read their option defaults from Runtime().
package config
