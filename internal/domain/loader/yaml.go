package loader

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type cohortFile struct {
	Employees []EmployeeRecord `yaml:"employees"`
}

// DecodeEmployeesYAML reads a cohort file with a top-level "employees" list.
func DecodeEmployeesYAML(r io.Reader) ([]EmployeeRecord, error) {
	var f cohortFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode cohort yaml: %w", err)
	}
	return f.Employees, nil
}

// DecodeRoleYAML reads a single role definition.
func DecodeRoleYAML(r io.Reader) (RoleRecord, error) {
	var rec RoleRecord
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rec); err != nil {
		return RoleRecord{}, fmt.Errorf("decode role yaml: %w", err)
	}
	return rec, nil
}

// EncodeEmployeesYAML writes records in the format DecodeEmployeesYAML reads.
func EncodeEmployeesYAML(w io.Writer, records []EmployeeRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cohortFile{Employees: records}); err != nil {
		return fmt.Errorf("encode cohort yaml: %w", err)
	}
	return enc.Close()
}
