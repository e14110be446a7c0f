// Package config defines the format-agnostic configuration document the
// application boots from, the rules for selecting one provider per module,
// and Bind, which turns a provider's raw option bag into its typed config.
//
// Concrete loaders for HCL, TOML and YAML live in the hclconfig, tomlconfig
// and yamlconfig subpackages.
package config
