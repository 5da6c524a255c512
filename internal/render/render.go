package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mitchellh/go-wordwrap"

	"airport522/internal/adsb"
	"airport522/internal/metadata"
	"airport522/internal/tracking"
)

// DefaultWidth is used when no terminal width is configured
const DefaultWidth = 100

// continuation indents wrapped lines
const continuation = "    "

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	unknownStyle = cellStyle.Foreground(lipgloss.Color("241"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

// Message renders a decoded message, wrapping each line to width
func Message(msg *adsb.Message, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	lines := strings.Split(msg.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(trimmed)]

		wrapped := wordwrap.WrapString(trimmed, uint(width-len(indent)))
		for i, part := range strings.Split(wrapped, "\n") {
			if i > 0 {
				part = continuation + part
			}
			out = append(out, indent+part)
		}
	}
	return strings.Join(out, "\n")
}

// tableColumns pairs each column header with the field it shows
var tableColumns = []struct {
	header string
	field  adsb.FieldName
}{
	{"ID", adsb.FieldIdentification},
	{"Lat", adsb.FieldLatitude},
	{"Lon", adsb.FieldLongitude},
	{"Alt (ft)", adsb.FieldAltitude},
	{"Speed (kts)", adsb.FieldHorzVelocity},
	{"Heading", adsb.FieldHeading},
	{"V/S (ft/min)", adsb.FieldVertVelocity},
}

// AircraftTable renders the tracked aircraft, one row each, in the order
// given. Values never received show as Unknown.
func AircraftTable(aircraft []tracking.Aircraft, now time.Time) string {
	headers := []string{"ICAO", "Model", "Operator"}
	for _, c := range tableColumns {
		headers = append(headers, c.header)
	}
	headers = append(headers, "Seen")

	rows := make([][]string, 0, len(aircraft))
	for _, ac := range aircraft {
		row := []string{
			strings.ToUpper(ac.Key()),
			orUnknown(ac.Model()),
			orUnknown(ac.Operator()),
		}
		for _, c := range tableColumns {
			if d, ok := ac.Field(c.field); ok {
				row = append(row, d.Display())
			} else {
				row = append(row, metadata.Unknown)
			}
		}
		row = append(row, age(now.Sub(ac.LastUpdate())))
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if row >= 0 && row < len(rows) && rows[row][col] == metadata.Unknown {
				return unknownStyle
			}
			return cellStyle
		})

	title := titleStyle.Render(fmt.Sprintf("Tracking %d aircraft", len(aircraft)))
	return title + "\n" + t.String()
}

func orUnknown(s string) string {
	if s == "" {
		return metadata.Unknown
	}
	return s
}

// age formats how long ago an aircraft was last heard
func age(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}
