// Package questionnaire models the matchmaking questionnaire: the
// section/question catalog, the typed answer values, and validation.
// Answer payloads are keyed by question key and wire-compatible with the
// platform's flat JSON format.
package questionnaire

import (
	"encoding/json"
	"fmt"
	"strings"

	"confmatch/pkg/validation"
)

// Kind discriminates the answer value shape a question expects.
type Kind string

const (
	KindShortText         Kind = "short-text"
	KindSingleSelect      Kind = "single-select"
	KindMultiSelect       Kind = "multi-select"
	KindResearchQuestions Kind = "special-research-questions"
	KindCollabTopics      Kind = "top-3-collab-topics"
)

// ResearchQuestion is one entry of the structured "top research
// questions" answer: free text plus two 1-5 self ratings.
type ResearchQuestion struct {
	Question  string `json:"question"`
	Readiness int    `json:"readiness,omitempty"`
	Priority  int    `json:"priority,omitempty"`
}

// CollabTopic is one entry of the collaboration-topics answer.
type CollabTopic struct {
	Topic        string `json:"topic"`
	Expertise    int    `json:"expertise,omitempty"`
	Interest     int    `json:"interest,omitempty"`
	NeedHaveBoth string `json:"need_have_both,omitempty"`
}

// Answer is a typed questionnaire value. Concrete types are ShortText,
// SingleSelect, MultiSelect, ResearchQuestions and CollabTopics.
type Answer interface {
	Kind() Kind
	Empty() bool
}

type ShortText string

func (ShortText) Kind() Kind    { return KindShortText }
func (a ShortText) Empty() bool { return strings.TrimSpace(string(a)) == "" }

type SingleSelect string

func (SingleSelect) Kind() Kind    { return KindSingleSelect }
func (a SingleSelect) Empty() bool { return a == "" }

type MultiSelect []string

func (MultiSelect) Kind() Kind    { return KindMultiSelect }
func (a MultiSelect) Empty() bool { return len(a) == 0 }

type ResearchQuestions []ResearchQuestion

func (ResearchQuestions) Kind() Kind { return KindResearchQuestions }
func (a ResearchQuestions) Empty() bool {
	for _, q := range a {
		if strings.TrimSpace(q.Question) != "" {
			return false
		}
	}
	return true
}

type CollabTopics []CollabTopic

func (CollabTopics) Kind() Kind { return KindCollabTopics }
func (a CollabTopics) Empty() bool {
	for _, t := range a {
		if strings.TrimSpace(t.Topic) != "" {
			return false
		}
	}
	return true
}

// Answers maps question keys to typed values. It marshals to the flat
// object the platform stores, e.g. {"role":"Student","seeking":[...]}.
type Answers map[string]Answer

func (a Answers) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(a))
	for k, v := range a {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// DecodeAnswers rebuilds typed answers from a flat payload using the
// catalog to resolve each key's kind. Unknown keys are kept as short
// text so nothing stored is silently dropped.
func DecodeAnswers(raw json.RawMessage) (Answers, error) {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("invalid answers payload: %w", err)
	}
	out := make(Answers, len(flat))
	for key, val := range flat {
		q, ok := FindQuestion(key)
		kind := KindShortText
		if ok {
			kind = q.Kind
		}
		ans, err := decodeValue(kind, val)
		if err != nil {
			return nil, fmt.Errorf("answer %q: %w", key, err)
		}
		out[key] = ans
	}
	return out, nil
}

func decodeValue(kind Kind, raw json.RawMessage) (Answer, error) {
	switch kind {
	case KindMultiSelect:
		var vs []string
		if err := json.Unmarshal(raw, &vs); err != nil {
			return nil, err
		}
		return MultiSelect(vs), nil
	case KindResearchQuestions:
		var vs []ResearchQuestion
		if err := json.Unmarshal(raw, &vs); err != nil {
			return nil, err
		}
		return ResearchQuestions(vs), nil
	case KindCollabTopics:
		var vs []CollabTopic
		if err := json.Unmarshal(raw, &vs); err != nil {
			return nil, err
		}
		return CollabTopics(vs), nil
	case KindSingleSelect:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return SingleSelect(s), nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return ShortText(s), nil
	}
}

// Validate checks a full answer set against the catalog and returns
// per-field problems. A passing set returns an empty FieldErrors.
func Validate(a Answers) validation.FieldErrors {
	errs := validation.FieldErrors{}
	for _, section := range Catalog() {
		for _, q := range section.Items {
			ans, ok := a[q.Key]
			if !ok || ans == nil || ans.Empty() {
				if q.Required {
					errs.Add(q.Key, "required")
				}
				continue
			}
			if ans.Kind() != q.Kind {
				errs.Add(q.Key, fmt.Sprintf("expected %s answer", q.Kind))
				continue
			}
			validateValue(q, ans, errs)
		}
	}
	return errs
}

func validateValue(q Question, ans Answer, errs validation.FieldErrors) {
	switch v := ans.(type) {
	case ShortText:
		if q.Key == "linkedin_url" && !validation.ValidLinkedInURL(string(v)) {
			errs.Add(q.Key, "must be a linkedin.com URL")
		}
	case SingleSelect:
		if len(q.Options) > 0 && !q.AllowOther && !containsFold(q.Options, string(v)) {
			errs.Add(q.Key, "not one of the listed options")
		}
	case MultiSelect:
		if q.MaxPick > 0 && !validation.SelectionCount(v, q.MinPick, q.MaxPick) {
			errs.Add(q.Key, fmt.Sprintf("pick between %d and %d", q.MinPick, q.MaxPick))
		}
	case ResearchQuestions:
		for _, rq := range v {
			if !rateOk(rq.Readiness) || !rateOk(rq.Priority) {
				errs.Add(q.Key, "ratings must be 1-5")
				return
			}
		}
	case CollabTopics:
		for _, t := range v {
			if !rateOk(t.Expertise) || !rateOk(t.Interest) {
				errs.Add(q.Key, "ratings must be 1-5")
				return
			}
		}
	}
}

// rateOk accepts the 1-5 scale plus zero for "not rated".
func rateOk(n int) bool { return n >= 0 && n <= 5 }

func containsFold(opts []string, v string) bool {
	for _, o := range opts {
		if strings.EqualFold(o, v) {
			return true
		}
	}
	return false
}
