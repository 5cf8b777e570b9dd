package reportjob

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job is one recurring customer report.
// Jobs are loaded at startup from YAML files and fingerprinted so archived results can
// be tied to the definition that produced them.
type Job struct {
	Name        string
	Country     string
	Enabled     bool
	Fingerprint string // SHA-256 of the raw YAML file
}

// rawJob is the on-disk YAML shape. enabled defaults to true.
type rawJob struct {
	Name     string `yaml:"name"`
	Country  string `yaml:"country"`
	Schedule string `yaml:"schedule"` // optional; only "monthly" is supported
	Enabled  *bool  `yaml:"enabled"`
}

// FileSystemRepository loads report jobs from *.yaml files in a directory.
// Each file holds exactly one job. No hot reload.
type FileSystemRepository struct {
	dir  string
	jobs map[string]Job
}

// NewFileSystemRepository creates a repository and eagerly loads all jobs from dir.
// A missing directory yields zero jobs; a malformed file is an error.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:  dir,
		jobs: make(map[string]Job),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("report job dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("report job path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading report job dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading job file %s: %w", path, err)
		}

		var raw rawJob
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing job file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // comment-only file
		}
		if strings.TrimSpace(raw.Country) == "" {
			return fmt.Errorf("job %q: country must not be empty", raw.Name)
		}
		if raw.Schedule != "" && raw.Schedule != "monthly" {
			return fmt.Errorf("job %q: unsupported schedule %q (only monthly)", raw.Name, raw.Schedule)
		}
		if _, exists := r.jobs[raw.Name]; exists {
			return fmt.Errorf("job %q: duplicate job name (check multiple YAML files)", raw.Name)
		}

		enabled := true
		if raw.Enabled != nil {
			enabled = *raw.Enabled
		}

		r.jobs[raw.Name] = Job{
			Name:        raw.Name,
			Country:     strings.TrimSpace(raw.Country),
			Enabled:     enabled,
			Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
		}
	}
	return nil
}

// Jobs returns all loaded jobs ordered by name.
func (r *FileSystemRepository) Jobs() []Job {
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Enabled filters jobs down to the enabled ones.
func Enabled(jobs []Job) []Job {
	var out []Job
	for _, j := range jobs {
		if j.Enabled {
			out = append(out, j)
		}
	}
	return out
}
