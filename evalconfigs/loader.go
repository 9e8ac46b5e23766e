package evalconfigs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/taieval/cmds"
	"github.com/reusee/taieval/configs"
	"github.com/reusee/taieval/logs"
)

//go:embed schema.cue
var schema string

var configFiles = cmds.Collect[string]("-config", "load a configuration file before the default locations")

var filenames = []string{
	"taieval.cue",
	".taieval.cue",
}

func (Module) ConfigsLoader(
	logger logs.Logger,
) configs.Loader {
	paths := findConfigFiles(*configFiles)
	if len(paths) > 0 {
		logger.Info("config file",
			"paths", paths,
		)
	}
	return NewLoader(paths...)
}

// NewLoader reads paths against the taieval schema.
func NewLoader(paths ...string) configs.Loader {
	return configs.NewLoader(paths, schema)
}

// findConfigFiles lists explicit files first, then the working directory,
// the user config dir and /etc. Earlier files take precedence.
func findConfigFiles(explicit []string) []string {
	paths := append([]string(nil), explicit...)

	var dirs []string
	if workingDir, err := os.Getwd(); err == nil {
		dirs = append(dirs, workingDir)
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, configDir)
	}
	dirs = append(dirs, "/etc")

	for _, dir := range dirs {
		for _, filename := range filenames {
			path := filepath.Join(dir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}
	return paths
}
