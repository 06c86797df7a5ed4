package issue

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var exportColumns = []string{
	"Identifier", "Title", "Status", "Priority", "Assignee", "Estimate", "Due Date", "Created At",
}

// ExportForTeam renders a team's visible issues as an xlsx workbook.
func (s *IssueServiceImpl) ExportForTeam(ctx context.Context, actor, teamID primitive.ObjectID) ([]byte, string, error) {
	tm, err := s.Teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, "", denyOnMissing(err)
	}
	issues, err := s.ListForTeam(ctx, actor, teamID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Issues"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, is := range issues {
		assignee := ""
		if is.Assignee != nil {
			assignee = is.Assignee.Hex()
		}
		dueDate := ""
		if is.DueDate != nil {
			dueDate = is.DueDate.Format("2006-01-02")
		}
		row := []any{
			is.Identifier, is.Title, string(is.Status), string(is.Priority),
			assignee, is.Estimate, dueDate, is.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buffer.Bytes(), fmt.Sprintf("%s-issues.xlsx", tm.Slug), nil
}
