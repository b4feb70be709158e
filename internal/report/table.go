package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// WriteRollupTable renders one framework's rollup as a terminal table.
func WriteRollupTable(w io.Writer, fw models.Framework, rollups []models.ControlRollup) error {
	if _, err := fmt.Fprintf(w, "\n%s controls\n", strings.ToUpper(string(fw))); err != nil {
		return err
	}
	table := tablewriter.NewTable(w)
	table.Header("Control", "Status", "Checks", "Pass", "Fail", "Error", "Skip")
	for _, ru := range rollups {
		if err := table.Append([]string{
			ru.ControlID,
			string(ru.Status),
			strings.Join(ru.CheckIDs, ", "),
			strconv.Itoa(ru.Passed),
			strconv.Itoa(ru.Failed),
			strconv.Itoa(ru.Errors),
			strconv.Itoa(ru.Skipped),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteMatrixTable renders the cross-framework matrix as a terminal table.
func WriteMatrixTable(w io.Writer, m models.CrossFrameworkMatrix) error {
	if _, err := fmt.Fprintln(w, "\nCross-framework matrix"); err != nil {
		return err
	}
	table := tablewriter.NewTable(w)
	header := make([]any, 0, len(m.Frameworks)+1)
	for _, h := range matrixHeader(m) {
		header = append(header, h)
	}
	table.Header(header...)
	for _, row := range m.Rows {
		if err := table.Append(matrixRow(row)); err != nil {
			return err
		}
	}
	return table.Render()
}
