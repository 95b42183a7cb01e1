package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"lcdkit/internal/evaluation"
	"lcdkit/internal/rating"
	"lcdkit/internal/session"
)

var (
	strategyIDPattern    = regexp.MustCompile(`^\d+$`)
	subStrategyIDPattern = regexp.MustCompile(`^\d+\.\d+$`)
	guidelineIDPattern   = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

type rawSheet struct {
	Project    *session.ProjectData           `yaml:"project"`
	Concepts   map[string]rawConcept          `yaml:"concepts"`
	Priorities map[string]rawStrategyPriority `yaml:"priorities"`
}

type rawConcept struct {
	Level         string                       `yaml:"level"`
	Strategies    map[string]string            `yaml:"strategies"`
	SubStrategies map[string]string            `yaml:"sub_strategies"`
	Guidelines    map[string]map[string]string `yaml:"guidelines"`
}

type rawStrategyPriority struct {
	Priority      string                    `yaml:"priority"`
	SubStrategies map[string]rawSubPriority `yaml:"sub_strategies"`
}

type rawSubPriority struct {
	Priority string  `yaml:"priority"`
	Answer   *string `yaml:"answer"`
}

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	File    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// ParseAndValidate decodes a YAML evaluation sheet, rejecting unknown
// fields, and validates every id and rating in it.
func ParseAndValidate(data []byte, source string) (Sheet, error) {
	var raw rawSheet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Sheet{}, ValidationErrors{{
			File:    source,
			Field:   "yaml",
			Message: err.Error(),
		}}
	}
	return validateRawSheet(raw, source)
}

func validateRawSheet(raw rawSheet, source string) (Sheet, error) {
	v := validator{source: source}
	out := Sheet{
		Source:   source,
		Concepts: make(map[rating.Concept]ConceptSheet),
	}
	if raw.Project != nil {
		project := *raw.Project
		out.Project = &project
	}

	for _, key := range sortedKeys(raw.Concepts) {
		path := "concepts." + key
		concept, err := rating.ParseConcept(key)
		if err != nil {
			v.add(path, err.Error())
			continue
		}
		if _, dup := out.Concepts[concept]; dup {
			v.add(path, fmt.Sprintf("concept %s listed twice", concept))
			continue
		}
		out.Concepts[concept] = v.concept(raw.Concepts[key], path)
	}

	for _, strategyID := range sortedKeys(raw.Priorities) {
		out.Priorities = append(out.Priorities, v.priorities(strategyID, raw.Priorities[strategyID])...)
	}

	if len(v.errs) > 0 {
		return Sheet{}, v.errs
	}
	return out, nil
}

type validator struct {
	source string
	errs   ValidationErrors
}

func (v *validator) add(field, message string) {
	v.errs = append(v.errs, ValidationError{File: v.source, Field: field, Message: message})
}

func (v *validator) concept(raw rawConcept, path string) ConceptSheet {
	level := rating.Simplified
	if strings.TrimSpace(raw.Level) != "" {
		parsed, err := rating.ParseChecklistLevel(raw.Level)
		if err != nil {
			v.add(path+".level", err.Error())
		} else {
			level = parsed
		}
	}

	cs := ConceptSheet{
		Level:         level,
		Strategies:    make(map[string]rating.EvaluationLevel),
		SubStrategies: make(map[string]rating.EvaluationLevel),
		Guidelines:    make(map[string]map[string]rating.EvaluationLevel),
	}
	scratch := evaluation.NewChecklist()
	if err := scratch.SetLevel(level); err != nil {
		v.add(path+".level", err.Error())
	}

	if len(raw.Strategies) > 0 && scratch.Derived(evaluation.KindStrategy) {
		v.add(path+".strategies", fmt.Sprintf("strategy ratings are computed at %s level", level))
	}
	for _, id := range sortedKeys(raw.Strategies) {
		field := path + ".strategies." + id
		if !strategyIDPattern.MatchString(id) {
			v.add(field, "not a strategy id")
			continue
		}
		if lvl, ok := v.level(field, raw.Strategies[id]); ok {
			cs.Strategies[id] = lvl
		}
	}

	if len(raw.SubStrategies) > 0 && scratch.Derived(evaluation.KindSubStrategy) {
		v.add(path+".sub_strategies", fmt.Sprintf("sub-strategy ratings are computed at %s level", level))
	}
	for _, id := range sortedKeys(raw.SubStrategies) {
		field := path + ".sub_strategies." + id
		if !subStrategyIDPattern.MatchString(id) {
			v.add(field, "not a sub-strategy id")
			continue
		}
		if lvl, ok := v.level(field, raw.SubStrategies[id]); ok {
			cs.SubStrategies[id] = lvl
		}
	}

	for _, subID := range sortedKeys(raw.Guidelines) {
		subField := path + ".guidelines." + subID
		if !subStrategyIDPattern.MatchString(subID) {
			v.add(subField, "not a sub-strategy id")
			continue
		}
		for _, gID := range sortedKeys(raw.Guidelines[subID]) {
			field := subField + "." + gID
			if !guidelineIDPattern.MatchString(gID) || !strings.HasPrefix(gID, subID+".") {
				v.add(field, fmt.Sprintf("not a guideline id of sub-strategy %s", subID))
				continue
			}
			lvl, ok := v.level(field, raw.Guidelines[subID][gID])
			if !ok {
				continue
			}
			if cs.Guidelines[subID] == nil {
				cs.Guidelines[subID] = make(map[string]rating.EvaluationLevel)
			}
			cs.Guidelines[subID][gID] = lvl
		}
	}
	return cs
}

func (v *validator) level(field, value string) (rating.EvaluationLevel, bool) {
	lvl, err := rating.ParseEvaluationLevel(value)
	if err != nil {
		v.add(field, err.Error())
		return "", false
	}
	return lvl, true
}

func (v *validator) priorities(strategyID string, raw rawStrategyPriority) []PriorityEntry {
	path := "priorities." + strategyID
	if !strategyIDPattern.MatchString(strategyID) {
		v.add(path, "not a strategy id")
		return nil
	}

	var entries []PriorityEntry
	if strings.TrimSpace(raw.Priority) != "" {
		p, err := rating.ParsePriorityLevel(raw.Priority)
		if err != nil {
			v.add(path+".priority", err.Error())
		} else {
			entries = append(entries, PriorityEntry{StrategyID: strategyID, Priority: &p})
		}
	}

	for _, subID := range sortedKeys(raw.SubStrategies) {
		field := path + ".sub_strategies." + subID
		if !subStrategyIDPattern.MatchString(subID) || !strings.HasPrefix(subID, strategyID+".") {
			v.add(field, fmt.Sprintf("not a sub-strategy id of strategy %s", strategyID))
			continue
		}
		sub := raw.SubStrategies[subID]
		entry := PriorityEntry{StrategyID: strategyID, SubStrategyID: subID, Answer: sub.Answer}
		if strings.TrimSpace(sub.Priority) != "" {
			p, err := rating.ParsePriorityLevel(sub.Priority)
			if err != nil {
				v.add(field+".priority", err.Error())
				continue
			}
			entry.Priority = &p
		}
		entries = append(entries, entry)
	}
	return entries
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
