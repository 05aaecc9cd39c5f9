package config

const (
	// DefaultConfigFile is the name batcher looks for when -f is not given.
	DefaultConfigFile = "batcher.yml"

	// DeprecatedConfigFileAlias mirrors the original tool's file name so
	// existing projects keep working unmodified.
	DeprecatedConfigFileAlias = "batect.yml"

	DefaultVolumeMode = "rw"
)

// DefaultFile returns a Configuration with zero-value defaults applied.
// There are no numeric/timeout defaults at the configuration layer itself
// (those live in the engine and CLI); this exists so LoadFile always
// starts from a well-formed value before YAML unmarshal populates it.
func DefaultFile() *Configuration {
	return &Configuration{
		Containers: map[string]*ContainerDef{},
		Tasks:      map[string]*TaskDef{},
	}
}
