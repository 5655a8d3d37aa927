package cli

import (
	_ "embed"
	"slices"
)

// The embedded defaults carry only the common logging section; connection
// fields always come from the user's configuration, flags, or environment.
//
//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the embedded default
// configuration data together with its type identifier.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return slices.Clone(embeddedDefaultConfigurationContent), configurationTypeConstant
}
