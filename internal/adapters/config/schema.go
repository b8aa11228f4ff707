package config

// Workfile represents the structure of the tgraph.yaml workspace file.
type Workfile struct {
	RootCell        string            `yaml:"root_cell"`
	Cells           map[string]string `yaml:"cells"`
	Parser          ParserDTO         `yaml:"parser"`
	Platforms       []PlatformDTO     `yaml:"platforms"`
	DefaultPlatform string            `yaml:"default_platform"`
	Daemon          DaemonDTO         `yaml:"daemon"`
}

// ParserDTO holds the parser settings shared by every cell.
type ParserDTO struct {
	BuildFileName   string   `yaml:"build_file_name"`
	PackageFiles    *bool    `yaml:"package_files"`
	Enforcement     string   `yaml:"enforcement"`
	DefaultIncludes []string `yaml:"default_includes"`
	Parallelism     int      `yaml:"parallelism"`
}

// PlatformDTO declares a named platform by its constraint values.
type PlatformDTO struct {
	Name        string   `yaml:"name"`
	Constraints []string `yaml:"constraints"`
}

// DaemonDTO holds daemon settings.
type DaemonDTO struct {
	IdleTimeout string `yaml:"idle_timeout"`
}
