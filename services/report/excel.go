package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelRenderer writes a workbook with a summary sheet and one row
// per pathway enrollment on the members sheet.
type ExcelRenderer struct{}

func (ExcelRenderer) Name() string { return "excel" }
func (ExcelRenderer) Ext() string  { return "xlsx" }

func (ExcelRenderer) Render(ctx context.Context, model Model) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	summary := "Summary"
	err := book.SetSheetName("Sheet1", summary)
	if err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{"Club", model.ClubName},
		{"Generated", model.GeneratedAt.Format("2006-01-02 15:04")},
		{},
		{"Paid members", model.Stats.TotalMembers},
		{"Active members", model.Stats.ActiveMembers},
		{"Completed pathways", model.Stats.CompletedPathwaysTotal},
		{"Members with incomplete data", model.Stats.IncompleteMembers},
		{},
		{"Pathway", "Members"},
	}
	for _, row := range model.PathwayDistribution {
		rows = append(rows, []interface{}{row.Label, row.Count})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Level", "Members"})
	for _, row := range model.LevelDistribution {
		rows = append(rows, []interface{}{row.Label, row.Count})
	}
	err = writeRows(book, summary, rows)
	if err != nil {
		return nil, err
	}

	members := "Members"
	_, err = book.NewSheet(members)
	if err != nil {
		return nil, err
	}
	memberRows := [][]interface{}{
		{"Member", "Email", "Pathway", "Level", "Complete %", "Left in Level", "Left in Pathway", "Status", "Notes"},
	}
	for _, member := range model.Members {
		notes := ""
		if member.Incomplete {
			notes = "incomplete data"
		}
		if len(member.Pathways) == 0 {
			memberRows = append(memberRows, []interface{}{
				member.DisplayName, member.Email, "", "", "", "", "", "", notes,
			})
			continue
		}
		for _, pathway := range member.Pathways {
			memberRows = append(memberRows, []interface{}{
				member.DisplayName,
				member.Email,
				pathway.Name,
				pathway.CurrentLevel,
				pathway.CompletionPercent,
				pathway.RemainingInLevel,
				pathway.RemainingInPathway,
				pathway.Status,
				notes,
			})
		}
	}
	err = writeRows(book, members, memberRows)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	err = book.Write(&buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func writeRows(book *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		err = book.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
