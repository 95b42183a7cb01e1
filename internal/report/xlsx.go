package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"lcdkit/internal/rating"
)

// Workbook sheet names.
const (
	SheetChecklist  = "Checklist"
	SheetRadar      = "Radar"
	SheetPriorities = "Priorities"
	SheetProject    = "Project"
	SheetIdeas      = "Ideas"
)

// WriteXLSX writes r as a workbook with one sheet per report section.
func WriteXLSX(w io.Writer, r Report) error {
	f, err := buildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path atomically.
func SaveXLSX(path string, r Report) error {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, r); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

func buildWorkbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetChecklist); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	checklist := [][]any{{"Kind", "ID", "Name", "Concept A", "Concept B"}}
	for _, row := range r.Checklist {
		checklist = append(checklist, []any{string(row.Kind), row.ID, row.Name, row.A.String(), row.B.String()})
	}

	radar := [][]any{{"Strategy", "Name", "Concept A", "Concept B", "Insight"}}
	for _, row := range r.Radar {
		radar = append(radar, []any{row.StrategyID, row.Name, row.A, row.B, row.Insight})
	}

	priorities := [][]any{{"Strategy", "Sub-strategy", "Name", "Priority", "Computed", "Answer"}}
	for _, row := range r.Priorities {
		priorities = append(priorities, []any{row.StrategyID, row.SubStrategyID, row.Name, row.Priority.String(), row.Computed, row.Answer})
	}

	project := [][]any{
		{"Field", "Value"},
		{"Project name", r.Project.ProjectName},
		{"Company", r.Project.Company},
		{"Designer", r.Project.Designer},
		{"Functional unit", r.Project.FunctionalUnit},
		{"Existing product", r.Project.DescriptionExistingProduct},
		{"Level concept A", r.Levels[rating.ConceptA].String()},
		{"Level concept B", r.Levels[rating.ConceptB].String()},
	}

	ideas := [][]any{{"ID", "Strategy", "Sub-strategy", "Guideline", "Text", "X", "Y"}}
	for _, idea := range r.Ideas {
		ideas = append(ideas, []any{idea.ID, idea.StrategyID, idea.SubStrategyID, idea.GuidelineID, idea.Text, idea.X, idea.Y})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetChecklist, checklist},
		{SheetRadar, radar},
		{SheetPriorities, priorities},
		{SheetProject, project},
		{SheetIdeas, ideas},
	}
	for _, sheet := range sheets {
		if sheet.name != SheetChecklist {
			if _, err := f.NewSheet(sheet.name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("add sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
