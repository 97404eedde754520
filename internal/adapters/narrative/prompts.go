package narrative

import (
	"fmt"
	"sort"
	"strings"
)

// SystemPrompt frames every request.
const SystemPrompt = "You are an HR analytics assistant. " +
	"You receive talent match scores (variable rates, group rates and final match rates) and explain them " +
	"in clear, concise business language. Never make definitive hiring decisions; " +
	"frame outputs as recommendations and insights."

// Section headings requested for structured job details.
const (
	SectionResponsibilities = "Key Responsibilities"
	SectionInputs           = "Work Inputs"
	SectionOutputs          = "Work Outputs"
	SectionQualifications   = "Qualifications"
	SectionCompetencies     = "Competencies"
)

var detailSections = []string{
	SectionResponsibilities,
	SectionInputs,
	SectionOutputs,
	SectionQualifications,
	SectionCompetencies,
}

// roleContext renders the role and its benchmarks as plain text.
func roleContext(b Brief) string {
	var sb strings.Builder
	sb.WriteString("Role information:\n")
	fmt.Fprintf(&sb, "- Role Name: %s\n", b.title())
	if b.JobLevel != "" {
		fmt.Fprintf(&sb, "- Job Level: %s\n", b.JobLevel)
	}
	if b.Purpose != "" {
		fmt.Fprintf(&sb, "- Role Purpose: %s\n", b.Purpose)
	}

	sb.WriteString("\nKey variables and weights:\n")
	for _, v := range b.Variables {
		if v.Group != "" {
			fmt.Fprintf(&sb, "  - [%s] %s: %.2f\n", v.Group, v.Name, v.Weight)
		} else {
			fmt.Fprintf(&sb, "  - %s: %.2f\n", v.Name, v.Weight)
		}
	}

	if len(b.Separations) > 0 {
		sb.WriteString("\nWhat separates top performers (top mean vs rest mean):\n")
		for _, s := range b.Separations {
			fmt.Fprintf(&sb, "  - %s: %.2f vs %.2f (effect %.2f)\n", s.Variable, s.TopMean, s.RestMean, s.Statistic)
		}
	}

	sb.WriteString("\nBenchmark employees:\n\n")
	for _, bm := range b.Benchmarks {
		fmt.Fprintf(&sb, "Name: %s (ID: %s)\n", bm.FullName, bm.EmployeeID)
		fmt.Fprintf(&sb, "Final match rate: %.2f\n", bm.Result.FinalMatchRate)
		if len(bm.Result.GroupRates) > 0 {
			sb.WriteString("Group summary:\n")
			groups := make([]string, 0, len(bm.Result.GroupRates))
			for g := range bm.Result.GroupRates {
				groups = append(groups, g)
			}
			sort.Strings(groups)
			for _, g := range groups {
				fmt.Fprintf(&sb, "  - %s: %.2f\n", g, bm.Result.GroupRates[g])
			}
		}
		if len(bm.Result.Contributions) > 0 {
			sb.WriteString("Key variables:\n")
			for _, c := range bm.Result.Contributions {
				fmt.Fprintf(&sb, "  - [%s] %s: %.2f\n", c.Group, c.Variable, c.SubScore)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// DescriptionPrompt asks for a job description and a weighted variable list.
func DescriptionPrompt(b Brief) string {
	return "Use the role information and benchmark employees below to:\n" +
		"1) Write a short job description (3-5 bullets) for the role.\n" +
		"2) List the key variables (competency, cognitive, strengths) with their weight or importance.\n" +
		"3) Briefly explain why these benchmark employees are relevant.\n\n" +
		roleContext(b) + "\n" +
		"Answer with the sections:\n" +
		"- Role Purpose & Key Outcomes\n" +
		"- Job Description (bullet points)\n" +
		"- Key Variables & short explanation\n" +
		"- Notes for HR / hiring manager."
}

// DetailsPrompt asks for structured job details under fixed headings.
func DetailsPrompt(b Brief) string {
	var sb strings.Builder
	sb.WriteString("Use the context below to write structured job details.\n\n")
	sb.WriteString(roleContext(b))
	sb.WriteString("\nWrite job details for the role with the categories:\n")
	for i, s := range detailSections {
		fmt.Fprintf(&sb, "%d) %s\n", i+1, s)
	}
	sb.WriteString("\nFormat:\n")
	for _, s := range detailSections {
		fmt.Fprintf(&sb, "## %s\n- ...\n\n", s)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ParseSections splits a markdown answer into bullet lists keyed by "## " headings.
// Text before the first heading is dropped.
func ParseSections(text string) map[string][]string {
	out := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#"):
			current = strings.TrimSpace(strings.TrimLeft(line, "#"))
			if _, ok := out[current]; !ok {
				out[current] = nil
			}
		case current == "" || line == "":
		default:
			item := strings.TrimSpace(strings.TrimLeft(line, "-*•"))
			if item != "" {
				out[current] = append(out[current], item)
			}
		}
	}
	return out
}
