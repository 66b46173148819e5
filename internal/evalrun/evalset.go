// Package evalrun runs the fixed evaluation set against the live answer
// pipeline and writes one JSONL record per question.
package evalrun

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skyops/airman/internal/models"
)

// DefaultEvalSet is the built-in regression set: ten questions over the
// drone operating manuals, including a paraphrase, a shorthand query, an
// out-of-scope probe, and a negative-framing trap.
func DefaultEvalSet() []models.EvalItem {
	return []models.EvalItem{
		{
			ID:             "q1_satellite_count_direct",
			Query:          "In the pre-flight check, how many satellites should the GPS lock on to?",
			ExpectedAnswer: "In the pre-flight check, the GPS should lock on to at least 10 satellites.",
		},
		{
			ID:             "q2_satellite_count_paraphrased",
			Query:          "Is there a minimum number of satellites that the GPS should lock on to during pre-flight checks?",
			ExpectedAnswer: "Yes, in the pre-flight checks, the GPS should lock on to at least 10 satellites before takeoff.",
		},
		{
			ID:    "q3_battery_inspection_procedure",
			Query: "How should the pilot inspect the battery during pre-flight checks?",
			ExpectedAnswer: "The pilot should verify that all flight batteries are physically intact, with no swelling, dents, or visible leakage; " +
				"confirm battery voltage is within the recommended range (22.2-25.0 V for a 6S pack); and ensure connectors are clean " +
				"and firmly seated in the power distribution harness.",
		},
		{
			ID:             "q4_home_point_vs_failsafe",
			Query:          "Should the pilot confirm whether the home point has been correctly recorded in the Ground Control Station during the failsafe tests?",
			ExpectedAnswer: "The pilot should confirm that the home point has been correctly recorded in the GCS during the GPS and home point pre-flight checks, which should happen before the failsafe tests.",
		},
		{
			ID:    "q5_definition_example_preflight",
			Query: "What is a pre-flight check and give one example from our docs?",
			ExpectedAnswer: "Pre-flight checks are a list of things that a pilot should check before takeoff to ensure safe flight. " +
				"For example, the pilot should verify that all flight batteries are intact, with no swelling, dents, or visible leakage " +
				"as part of the battery inspection pre-flight checks.",
		},
		{
			ID:             "q6_out_of_scope_cheetah_speed",
			Query:          "How fast can cheetahs run?",
			ExpectedAnswer: "Answer not in knowledge documents",
		},
		{
			ID:             "q7_ambiguous_motor_vs_gps_order",
			Query:          "Should the motor test be done before or after the GPS checks?",
			ExpectedAnswer: "The motor test should be done after the pre-flight GPS checks.",
		},
		{
			ID:    "q8_list_preflight_checks",
			Query: "What are the different types of pre-flight checks a pilot should do before flight?",
			ExpectedAnswer: "A pilot should do the following pre-flight checks before takeoff: " +
				"battery inspection, GPS and home point lock, control surface and motor test, and failsafe behaviour.",
		},
		{
			ID:    "q9_shorthand_bat_inspect",
			Query: "What happens in the bat inspec part of the pre-flight check?",
			ExpectedAnswer: "The pilot should verify that all flight batteries are physically intact, with no swelling, dents, or visible leakage; " +
				"confirm battery voltage is within the recommended range (22.2-25.0 V for a 6S pack); and ensure connectors are clean " +
				"and firmly seated in the power distribution harness.",
		},
		{
			ID:             "q10_tricky_negative_satellite_count",
			Query:          "Should the pilot proceed with takeoff if the GPS is locked on to 8 satellites?",
			ExpectedAnswer: "No, the pilot should wait until the GPS has locked on to at least 10 satellites before takeoff and ensure all other pre-flight checks are complete.",
		},
	}
}

// evalSetFile is the on-disk YAML shape of a custom eval set.
type evalSetFile struct {
	Items []models.EvalItem `yaml:"items"`
}

// LoadEvalSet reads an eval set from a YAML file. An empty path returns
// the built-in set. Items must have unique, non-empty ids and non-empty
// queries.
func LoadEvalSet(path string) ([]models.EvalItem, error) {
	if path == "" {
		return DefaultEvalSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read eval set: %w", err)
	}
	var file evalSetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse eval set %s: %w", path, err)
	}
	if len(file.Items) == 0 {
		return nil, fmt.Errorf("eval set %s contains no items", path)
	}
	seen := make(map[string]bool)
	for i, item := range file.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("eval set %s: item %d has no id", path, i)
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("eval set %s: duplicate id %q", path, item.ID)
		}
		seen[item.ID] = true
		if item.Query == "" {
			return nil, fmt.Errorf("eval set %s: item %q has no query", path, item.ID)
		}
	}
	return file.Items, nil
}
