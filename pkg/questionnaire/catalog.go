package questionnaire

// Question is one catalog entry. MinPick/MaxPick bound multi-selects;
// AllowOther permits free-text values outside Options.
type Question struct {
	Key         string
	Prompt      string
	Kind        Kind
	Options     []string
	Required    bool
	AllowOther  bool
	Placeholder string
	MinPick     int
	MaxPick     int
}

// Section groups questions under a heading.
type Section struct {
	Name  string
	Items []Question
}

var catalog = []Section{
	{
		Name: "Quick Profile",
		Items: []Question{
			{
				Key:        "role",
				Prompt:     "Primary role",
				Kind:       KindSingleSelect,
				Options:    []string{"Student", "Postdoc", "Faculty", "Research Scientist", "Engineer", "PI", "Other"},
				Required:   true,
				AllowOther: true,
			},
			{
				Key:         "affiliation",
				Prompt:      "Affiliation (lab/department + institution)",
				Kind:        KindShortText,
				Required:    true,
				Placeholder: "e.g., Dept. of ECE, IIT Delhi",
			},
			{
				Key:      "seniority",
				Prompt:   "Seniority",
				Kind:     KindSingleSelect,
				Options:  []string{"Early-career", "Mid-career", "Senior"},
				Required: true,
			},
			{
				Key:         "linkedin_url",
				Prompt:      "LinkedIn profile",
				Kind:        KindShortText,
				Placeholder: "e.g., https://www.linkedin.com/in/example_id/",
			},
			{
				Key:         "researcher_ids",
				Prompt:      "ORCID / Google Scholar ID",
				Kind:        KindShortText,
				Placeholder: "Orcid: 0000-0000-0000-0000; Google Scholar ID",
			},
		},
	},
	{
		Name: "Fields & Subfields",
		Items: []Question{
			{
				Key:    "core_research_areas",
				Prompt: "Core research areas (pick 3-8)",
				Kind:   KindMultiSelect,
				Options: []string{
					"Artificial Intelligence", "Machine Learning", "Deep Learning",
					"Robotics", "Biotechnology", "Quantum Computing", "Cybersecurity",
					"Data Science", "Healthcare Technology", "Materials Science",
					"Electronics", "Energy Systems", "Wireless Communication",
				},
				Required:   true,
				AllowOther: true,
				MinPick:    3,
				MaxPick:    8,
			},
			{
				Key:    "subfields_domains",
				Prompt: "Subfields or application domains (pick 3-8)",
				Kind:   KindMultiSelect,
				Options: []string{
					"Healthcare", "Aerospace", "Defense", "Education", "Industrial IoT",
					"Smart Cities", "Telecom / 5G / 6G", "Renewable Energy",
					"Transportation", "Finance",
				},
				AllowOther: true,
				MinPick:    3,
				MaxPick:    8,
			},
		},
	},
	{
		Name: "Problem & Goals",
		Items: []Question{
			{
				Key:      "problems_top_questions",
				Prompt:   "Top 3 research questions this year, with readiness and priority (1-5)",
				Kind:     KindResearchQuestions,
				Required: true,
			},
			{
				Key:        "goals_outcomes",
				Prompt:     "What outcomes are you aiming for?",
				Kind:       KindMultiSelect,
				Options:    []string{"theory", "methods", "prototype", "field trial", "standard contribution"},
				Required:   true,
				AllowOther: true,
			},
		},
	},
	{
		Name: "Matching metadata",
		Items: []Question{
			{
				Key:    "top_3_collab_topics",
				Prompt: "Top 3 topics: rate expertise (1-5) and interest to collaborate (1-5)",
				Kind:   KindCollabTopics,
			},
		},
	},
	{
		Name: "Methods & Approach",
		Items: []Question{
			{
				Key:        "evaluation_metrics",
				Prompt:     "Evaluation metrics you care about",
				Kind:       KindMultiSelect,
				Options:    []string{"F1", "BLEU", "MAPE", "THD", "latency", "power", "safety"},
				Required:   true,
				AllowOther: true,
			},
			{
				Key:      "experimental_scale",
				Prompt:   "Experimental setup & scale",
				Kind:     KindSingleSelect,
				Options:  []string{"sim only", "lab bench", "pilot", "production"},
				Required: true,
			},
			{
				Key:        "standards_protocols",
				Prompt:     "Standards/protocols touched",
				Kind:       KindMultiSelect,
				Options:    []string{"IEEE 802.11ax", "1588", "754", "2030.5", "OPC UA"},
				AllowOther: true,
			},
		},
	},
	{
		Name: "Collaboration Fit",
		Items: []Question{
			{
				Key:    "seeking",
				Prompt: "I'm seeking (check all)",
				Kind:   KindMultiSelect,
				Options: []string{
					"co-authoring", "data sharing", "method validation", "grant consortium",
					"student exchange", "industry partner", "standards participation", "mentoring",
				},
				Required:   true,
				AllowOther: true,
			},
			{
				Key:    "offering",
				Prompt: "I can offer (check all)",
				Kind:   KindMultiSelect,
				Options: []string{
					"dataset access", "domain expertise", "hardware access", "lab time",
					"compute credits", "supervision", "codebase", "evaluation bench",
				},
				Required:   true,
				AllowOther: true,
			},
			{
				Key:         "collaborator_background",
				Prompt:      "Desired collaborator background",
				Kind:        KindShortText,
				Placeholder: "e.g., control engineers, computational biologists, industry contacts",
			},
		},
	},
	{
		Name: "Constraints & ethics",
		Items: []Question{
			{
				Key:      "data_sharing_constraints",
				Prompt:   "Data sharing constraints",
				Kind:     KindSingleSelect,
				Options:  []string{"open", "de-identified only", "NDA required", "embargoed", "export-controlled"},
				Required: true,
			},
			{
				Key:      "ip_licensing_stance",
				Prompt:   "IP & licensing stance",
				Kind:     KindSingleSelect,
				Options:  []string{"open-source friendly", "mixed", "proprietary-only", "case-by-case"},
				Required: true,
			},
		},
	},
}

// Catalog returns the full section list in display order.
func Catalog() []Section { return catalog }

// FindQuestion looks a question up by key.
func FindQuestion(key string) (Question, bool) {
	for _, s := range catalog {
		for _, q := range s.Items {
			if q.Key == key {
				return q, true
			}
		}
	}
	return Question{}, false
}
