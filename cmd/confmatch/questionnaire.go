package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"confmatch/pkg/questionnaire"
)

var questionnaireCmd = &cobra.Command{
	Use:     "questionnaire",
	Aliases: []string{"q"},
	Short:   "View or fill the matchmaking questionnaire",
}

var questionnaireShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print your saved answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resumeSession()
		if err != nil {
			return err
		}
		me, err := client.QuestionnaireMe(cmd.Context())
		if err != nil {
			return err
		}
		answers, err := questionnaire.DecodeAnswers(me.Answers)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, section := range questionnaire.Catalog() {
			fmt.Fprintf(out, "\n== %s ==\n", section.Name)
			for _, q := range section.Items {
				ans, ok := answers[q.Key]
				if !ok || ans.Empty() {
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", q.Prompt, renderAnswer(ans))
			}
		}
		if len(me.MutualRecommendations) > 0 {
			fmt.Fprintf(out, "\nMutual recommendations: %d\n", len(me.MutualRecommendations))
		}
		return nil
	},
}

var questionnaireFillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Answer the questionnaire interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resumeSession()
		if err != nil {
			return err
		}
		in := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		answers := questionnaire.Answers{}
		for _, section := range questionnaire.Catalog() {
			fmt.Fprintf(out, "\n== %s ==\n", section.Name)
			for _, q := range section.Items {
				ans := askQuestion(in, out, q)
				if ans != nil && !ans.Empty() {
					answers[q.Key] = ans
				}
			}
		}

		if errs := questionnaire.Validate(answers); !errs.Ok() {
			for k, v := range errs {
				fmt.Fprintf(out, "%s: %s\n", k, v)
			}
			return fmt.Errorf("questionnaire incomplete")
		}

		body := map[string]any{"answers": answers}
		if err := client.QuestionnaireSave(cmd.Context(), body); err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
		fmt.Fprintln(out, "Saved.")
		return nil
	},
}

func init() {
	questionnaireCmd.AddCommand(questionnaireShowCmd, questionnaireFillCmd)
}

func askQuestion(in *bufio.Reader, out io.Writer, q questionnaire.Question) questionnaire.Answer {
	fmt.Fprintf(out, "\n%s", q.Prompt)
	if q.Required {
		fmt.Fprint(out, " (required)")
	}
	fmt.Fprintln(out)

	switch q.Kind {
	case questionnaire.KindSingleSelect:
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d. %s\n", i+1, o)
		}
		line := readLine(in, out, "choice: ")
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
			return questionnaire.SingleSelect(q.Options[n-1])
		}
		if line != "" && q.AllowOther {
			return questionnaire.SingleSelect(line)
		}
		return nil
	case questionnaire.KindMultiSelect:
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d. %s\n", i+1, o)
		}
		line := readLine(in, out, "choices (comma-separated numbers or text): ")
		if line == "" {
			return nil
		}
		var picked []string
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if n, err := strconv.Atoi(part); err == nil && n >= 1 && n <= len(q.Options) {
				picked = append(picked, q.Options[n-1])
			} else if q.AllowOther {
				picked = append(picked, part)
			}
		}
		return questionnaire.MultiSelect(picked)
	case questionnaire.KindResearchQuestions:
		var rqs questionnaire.ResearchQuestions
		for i := 1; i <= 3; i++ {
			text := readLine(in, out, fmt.Sprintf("question %d (blank to stop): ", i))
			if text == "" {
				break
			}
			rqs = append(rqs, questionnaire.ResearchQuestion{
				Question:  text,
				Readiness: readRating(in, out, "readiness"),
				Priority:  readRating(in, out, "priority"),
			})
		}
		return rqs
	case questionnaire.KindCollabTopics:
		var topics questionnaire.CollabTopics
		for i := 1; i <= 3; i++ {
			topic := readLine(in, out, fmt.Sprintf("topic %d (blank to stop): ", i))
			if topic == "" {
				break
			}
			topics = append(topics, questionnaire.CollabTopic{
				Topic:     topic,
				Expertise: readRating(in, out, "expertise"),
				Interest:  readRating(in, out, "interest"),
			})
		}
		return topics
	default:
		if q.Placeholder != "" {
			fmt.Fprintf(out, "  (%s)\n", q.Placeholder)
		}
		return questionnaire.ShortText(readLine(in, out, "> "))
	}
}

func readLine(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func readRating(in *bufio.Reader, out io.Writer, label string) int {
	line := readLine(in, out, label+" (1-5): ")
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > 5 {
		return 0
	}
	return n
}

func renderAnswer(a questionnaire.Answer) string {
	switch v := a.(type) {
	case questionnaire.ShortText:
		return string(v)
	case questionnaire.SingleSelect:
		return string(v)
	case questionnaire.MultiSelect:
		return strings.Join(v, ", ")
	case questionnaire.ResearchQuestions:
		parts := make([]string, 0, len(v))
		for _, q := range v {
			parts = append(parts, fmt.Sprintf("%s (readiness %d, priority %d)", q.Question, q.Readiness, q.Priority))
		}
		return strings.Join(parts, "; ")
	case questionnaire.CollabTopics:
		parts := make([]string, 0, len(v))
		for _, t := range v {
			parts = append(parts, fmt.Sprintf("%s (expertise %d, interest %d)", t.Topic, t.Expertise, t.Interest))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
