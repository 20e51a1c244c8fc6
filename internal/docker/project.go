package docker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const defaultWaitForStartup = 60

// Project is the image description kept in project.toml.
type Project struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Image struct {
		Dockerfile string `toml:"dockerfile"`
		Context    string `toml:"context"`
	} `toml:"image"`
	Test struct {
		ContainerPostfix string `toml:"container_postfix"`
		// WaitForStartup is in seconds.
		WaitForStartup int    `toml:"wait_for_startup"`
		BaseURL        string `toml:"base_url"`
		// EnvFile is passed to docker run; relative to the project file.
		EnvFile string `toml:"env_file"`
	} `toml:"test"`

	dir string
}

// LoadProject reads and validates a project file. Relative image paths are
// resolved against the file's directory.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	if p.Project.Name == "" || p.Project.Version == "" {
		return nil, fmt.Errorf("project file %s: [project] name and version are required", path)
	}
	if p.Image.Dockerfile == "" {
		p.Image.Dockerfile = "Dockerfile"
	}
	if p.Image.Context == "" {
		p.Image.Context = "."
	}
	if p.Test.WaitForStartup <= 0 {
		p.Test.WaitForStartup = defaultWaitForStartup
	}
	p.dir = filepath.Dir(path)
	return &p, nil
}

// Dir is the directory holding the project file.
func (p *Project) Dir() string {
	return p.dir
}

// ImageTag is name:version.
func (p *Project) ImageTag() string {
	return p.Project.Name + ":" + p.Project.Version
}
