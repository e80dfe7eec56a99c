package config

// Reelfile represents the structure of the reel.yaml configuration file.
// Unset fields keep the value of the layer below.
type Reelfile struct {
	Targets         []string `yaml:"targets"`
	Quality         *string  `yaml:"quality"`
	Port            *int     `yaml:"port"`
	Host            *string  `yaml:"host"`
	MediaDir        *string  `yaml:"media_dir"`
	Open            *bool    `yaml:"open"`
	Engine          []string `yaml:"engine"`
	Encoder         *string  `yaml:"encoder"`
	Extensions      []string `yaml:"extensions"`
	ArtifactExt     *string  `yaml:"artifact_ext"`
	Debounce        *string  `yaml:"debounce"`
	Detector        *string  `yaml:"detector"`
	Python          *string  `yaml:"python"`
	Jobs            *int     `yaml:"jobs"`
	ShutdownTimeout *string  `yaml:"shutdown_timeout"`
}
