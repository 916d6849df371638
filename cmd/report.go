package cmd

import (
	"io"

	"github.com/icodezjb/canarydossier/accounts"
	"github.com/icodezjb/canarydossier/contract"
	"github.com/icodezjb/canarydossier/contract/helper"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderAccounts(w io.Writer, c *accounts.Container) {
	t := newTable(w)
	t.SetTitle("Available accounts")
	t.AppendHeader(table.Row{"#", "ALIAS", "ADDRESS", "SOURCE"})
	for i, acc := range c.All() {
		t.AppendRow(table.Row{i, acc.Alias, acc.Address.Hex(), string(acc.Kind)})
	}
	if c.Len() == 0 {
		t.AppendRow(table.Row{"-", "-", "no accounts configured", "-"})
	}
	t.Render()
}

// renderSettings prints the accessor values. Raw keeps seconds; otherwise
// intervals are shown in hours and days.
func renderSettings(w io.Writer, s *contract.Settings, raw bool) {
	t := newTable(w)
	t.SetTitle(contract.Name + " settings")
	t.AppendHeader(table.Row{"SETTING", "VALUE"})

	if raw {
		t.AppendRows([]table.Row{
			{contract.MethodMinCheckInInterval, s.MinCheckInInterval.String() + " seconds"},
			{contract.MethodMaxCheckInInterval, s.MaxCheckInInterval.String() + " seconds"},
			{contract.MethodGracePeriod, s.GracePeriod.String() + " seconds"},
		})
	} else {
		t.AppendRows([]table.Row{
			{contract.MethodMinCheckInInterval, helper.FormatFloat(helper.SecondsToHours(s.MinCheckInInterval)) + " hours"},
			{contract.MethodMaxCheckInInterval, helper.FormatFloat(helper.SecondsToDays(s.MaxCheckInInterval)) + " days"},
			{contract.MethodGracePeriod, helper.FormatFloat(helper.SecondsToHours(s.GracePeriod)) + " hours"},
			{contract.MethodMaxDossiersPerUser, s.MaxDossiersPerUser.String()},
		})
	}

	t.Render()
}
