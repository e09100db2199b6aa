package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
)

// JobsFile is the on-disk shape of the scheduled jobs file.
type JobsFile struct {
	Jobs []JobConfig `yaml:"jobs"`
}

// JobConfig describes one scheduled job.
type JobConfig struct {
	Name        string        `yaml:"name"`
	Source      string        `yaml:"source"`
	Destination string        `yaml:"destination"`
	DBName      string        `yaml:"dbname"`
	Trigger     TriggerConfig `yaml:"trigger"`
}

// TriggerConfig selects when a job runs: on a cron schedule or when a
// watched file changes.
type TriggerConfig struct {
	Type   string `yaml:"type"`   // "schedule" | "file_watch"
	Config string `yaml:"config"` // cron expression or file path
}

// LoadJobs reads and validates a jobs file. An empty path yields no jobs.
func LoadJobs(path string) ([]*etl.Job, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}
	return ParseJobs(data)
}

// ParseJobs decodes and validates the YAML jobs document. Unknown fields are
// rejected. Job ids are the job names.
func ParseJobs(data []byte) ([]*etl.Job, error) {
	var file JobsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.ErrValidation("parse jobs file: %v", err)
	}

	seen := make(map[string]bool, len(file.Jobs))
	jobs := make([]*etl.Job, 0, len(file.Jobs))
	for i, jc := range file.Jobs {
		if jc.Name == "" {
			return nil, domain.ErrValidation("job %d: name is required", i)
		}
		if seen[jc.Name] {
			return nil, domain.ErrValidation("job %q: duplicate name", jc.Name)
		}
		seen[jc.Name] = true

		if jc.Source == "" || jc.Destination == "" {
			return nil, domain.ErrValidation("job %q: source and destination are required", jc.Name)
		}
		switch jc.Destination {
		case etl.DestinationCSV, etl.DestinationDatabase:
		default:
			return nil, domain.ErrValidation("job %q: unknown destination %q", jc.Name, jc.Destination)
		}
		if jc.Trigger.Config == "" {
			return nil, domain.ErrValidation("job %q: trigger config is required", jc.Name)
		}
		switch jc.Trigger.Type {
		case etl.TriggerSchedule:
			if _, err := cron.ParseStandard(jc.Trigger.Config); err != nil {
				return nil, domain.ErrValidation("job %q: invalid cron expression %q: %v", jc.Name, jc.Trigger.Config, err)
			}
		case etl.TriggerFileWatch:
		default:
			return nil, domain.ErrValidation("job %q: unknown trigger type %q", jc.Name, jc.Trigger.Type)
		}

		jobs = append(jobs, &etl.Job{
			ID:            jc.Name,
			Name:          jc.Name,
			Source:        jc.Source,
			Destination:   jc.Destination,
			DBName:        jc.DBName,
			TriggerType:   jc.Trigger.Type,
			TriggerConfig: jc.Trigger.Config,
		})
	}
	return jobs, nil
}
