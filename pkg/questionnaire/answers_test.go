package questionnaire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func completeAnswers() Answers {
	return Answers{
		"role":        SingleSelect("Student"),
		"affiliation": ShortText("Dept. of ECE, IIT Delhi"),
		"seniority":   SingleSelect("Early-career"),
		"core_research_areas": MultiSelect{
			"Artificial Intelligence", "Machine Learning", "Robotics",
		},
		"problems_top_questions": ResearchQuestions{
			{Question: "Can federated learning work on microcontrollers?", Readiness: 3, Priority: 5},
		},
		"goals_outcomes":           MultiSelect{"prototype"},
		"evaluation_metrics":       MultiSelect{"latency", "power"},
		"experimental_scale":       SingleSelect("lab bench"),
		"seeking":                  MultiSelect{"co-authoring"},
		"offering":                 MultiSelect{"codebase"},
		"data_sharing_constraints": SingleSelect("open"),
		"ip_licensing_stance":      SingleSelect("open-source friendly"),
	}
}

func TestValidateCompleteSet(t *testing.T) {
	errs := Validate(completeAnswers())
	require.True(t, errs.Ok(), "unexpected problems: %v", errs)
}

func TestValidateRequired(t *testing.T) {
	a := completeAnswers()
	delete(a, "affiliation")
	a["role"] = SingleSelect("")

	errs := Validate(a)
	require.Contains(t, errs, "affiliation")
	require.Contains(t, errs, "role")
}

func TestValidateSelectionBounds(t *testing.T) {
	a := completeAnswers()
	a["core_research_areas"] = MultiSelect{"Robotics"}
	errs := Validate(a)
	require.Contains(t, errs, "core_research_areas")
}

func TestValidateLinkedIn(t *testing.T) {
	a := completeAnswers()
	a["linkedin_url"] = ShortText("https://example.com/me")
	require.Contains(t, Validate(a), "linkedin_url")

	a["linkedin_url"] = ShortText("https://www.linkedin.com/in/me/")
	require.NotContains(t, Validate(a), "linkedin_url")
}

func TestValidateRatings(t *testing.T) {
	a := completeAnswers()
	a["problems_top_questions"] = ResearchQuestions{{Question: "q", Readiness: 9}}
	require.Contains(t, Validate(a), "problems_top_questions")
}

func TestValidateSingleSelectOptions(t *testing.T) {
	a := completeAnswers()
	a["experimental_scale"] = SingleSelect("in orbit")
	require.Contains(t, Validate(a), "experimental_scale")

	// role allows free-text "Other" values
	a = completeAnswers()
	a["role"] = SingleSelect("Hobbyist")
	require.NotContains(t, Validate(a), "role")
}

func TestAnswersRoundTrip(t *testing.T) {
	a := completeAnswers()
	data, err := json.Marshal(a)
	require.NoError(t, err)

	// wire format is flat: values directly under their keys
	var flat map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &flat))
	var role string
	require.NoError(t, json.Unmarshal(flat["role"], &role))
	require.Equal(t, "Student", role)

	decoded, err := DecodeAnswers(data)
	require.NoError(t, err)
	require.Equal(t, a["core_research_areas"], decoded["core_research_areas"])
	require.Equal(t, a["problems_top_questions"], decoded["problems_top_questions"])
	require.Equal(t, a["role"], decoded["role"])
}

func TestDecodeUnknownKeyKeptAsText(t *testing.T) {
	decoded, err := DecodeAnswers(json.RawMessage(`{"legacy_field":"kept"}`))
	require.NoError(t, err)
	require.Equal(t, ShortText("kept"), decoded["legacy_field"])
}

func TestCatalogKeysUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range Catalog() {
		for _, q := range s.Items {
			require.False(t, seen[q.Key], "duplicate key %s", q.Key)
			seen[q.Key] = true
		}
	}
}
